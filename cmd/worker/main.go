package main

import (
	"os"

	"github.com/buildwise-ai/buildwise-backend/cmd/worker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
