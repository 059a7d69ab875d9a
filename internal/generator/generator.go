package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

// Generator produces a floor plan image for a prompt. The returned source is a
// data URI or an http(s) URL, ready for image persistence.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// PromptInput is the project data folded into the generation prompt.
type PromptInput struct {
	Length    float64
	Width     float64
	Unit      string
	Bedrooms  int
	Bathrooms int
	Kitchens  int
	Floors    int
	Style     string
	Rooms     []string
	Budget    float64
	Currency  string
	City      string
	Country   string
	Extra     string
}

// BuildPrompt renders a deterministic architectural prompt.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("Top-down 2D architectural floor plan, clean line drawing, white background, labeled rooms with dimensions.")

	unit := in.Unit
	if unit == "" {
		unit = "ft"
	}
	if in.Length > 0 && in.Width > 0 {
		fmt.Fprintf(&b, " Plot size %g x %g %s (%g sq %s).", in.Length, in.Width, unit, in.Length*in.Width, unit)
	}
	if in.Floors > 1 {
		fmt.Fprintf(&b, " %d floors.", in.Floors)
	}
	if in.Bedrooms > 0 || in.Bathrooms > 0 {
		fmt.Fprintf(&b, " %d bedrooms, %d bathrooms", in.Bedrooms, in.Bathrooms)
		if in.Kitchens > 0 {
			fmt.Fprintf(&b, ", %d kitchen(s)", in.Kitchens)
		}
		b.WriteString(".")
	}
	if len(in.Rooms) > 0 {
		fmt.Fprintf(&b, " Also include: %s.", strings.Join(in.Rooms, ", "))
	}
	if in.Style != "" {
		fmt.Fprintf(&b, " %s style.", in.Style)
	}
	if in.Budget > 0 {
		cur := in.Currency
		if cur == "" {
			cur = "USD"
		}
		fmt.Fprintf(&b, " Budget around %.0f %s.", in.Budget, cur)
	}
	if loc := strings.Trim(strings.Join([]string{in.City, in.Country}, ", "), ", "); loc != "" {
		fmt.Fprintf(&b, " Located in %s.", loc)
	}
	if extra := strings.TrimSpace(in.Extra); extra != "" {
		b.WriteString(" ")
		b.WriteString(extra)
	}
	return b.String()
}

// Disabled is used when no AI provider is configured.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", apperr.New(apperr.KindDependencyMissing, "AI floor plan generation is not configured")
}

func record(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	metrics.GeneratorCalls.WithLabelValues(provider, outcome).Inc()
}
