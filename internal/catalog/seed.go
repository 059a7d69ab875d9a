package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/buildwise-ai/buildwise-backend/internal/catalog/domain"
)

// LoadSeed reads a catalog seed file.
func LoadSeed(path string) (domain.Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes seed YAML. Unknown keys are rejected, every entry needs an
// id and a name, and ids must be unique per kind.
func ParseSeed(raw []byte) (domain.Seed, error) {
	var seed domain.Seed
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return domain.Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	for i := range seed.Materials {
		if seed.Materials[i].Currency == "" {
			seed.Materials[i].Currency = "USD"
		}
	}
	for i := range seed.Regions {
		if seed.Regions[i].Currency == "" {
			seed.Regions[i].Currency = "USD"
		}
	}

	if err := checkEntries("designers", len(seed.Designers), func(i int) (string, string) {
		return seed.Designers[i].ID, seed.Designers[i].Name
	}); err != nil {
		return domain.Seed{}, err
	}
	if err := checkEntries("materials", len(seed.Materials), func(i int) (string, string) {
		return seed.Materials[i].ID, seed.Materials[i].Name
	}); err != nil {
		return domain.Seed{}, err
	}
	if err := checkEntries("regions", len(seed.Regions), func(i int) (string, string) {
		return seed.Regions[i].ID, seed.Regions[i].Name
	}); err != nil {
		return domain.Seed{}, err
	}
	return seed, nil
}

func checkEntries(kind string, n int, at func(int) (id, name string)) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id, name := at(i)
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("%s[%d]: id is required", kind, i)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s[%d] (%s): name is required", kind, i, id)
		}
		if seen[id] {
			return fmt.Errorf("%s[%d]: duplicate id %q", kind, i, id)
		}
		seen[id] = true
	}
	return nil
}
