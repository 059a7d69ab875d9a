package enhance

import (
	"encoding/json"
	"strings"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

// ColorScheme selects the rendering palette of the processing tool.
type ColorScheme string

const (
	SchemeDefault    ColorScheme = "default"
	SchemeBlueprint  ColorScheme = "blueprint"
	SchemeModern     ColorScheme = "modern"
	SchemeVintage    ColorScheme = "vintage"
	SchemeMonochrome ColorScheme = "monochrome"
)

var schemes = []ColorScheme{SchemeDefault, SchemeBlueprint, SchemeModern, SchemeVintage, SchemeMonochrome}

// ColorSchemes lists the accepted schemes in display order.
func ColorSchemes() []ColorScheme {
	out := make([]ColorScheme, len(schemes))
	copy(out, schemes)
	return out
}

// ParseColorScheme accepts a scheme name; empty means SchemeDefault.
func ParseColorScheme(s string) (ColorScheme, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SchemeDefault, nil
	}
	for _, cs := range schemes {
		if string(cs) == s {
			return cs, nil
		}
	}
	names := make([]string, len(schemes))
	for i, cs := range schemes {
		names[i] = string(cs)
	}
	return "", apperr.BadRequest("colorScheme", "colorScheme must be one of: "+strings.Join(names, ", "))
}

// Capability is the set of extra outputs requested besides the enhanced image.
type Capability uint8

const (
	// EnhanceOnly produces just the enhanced image.
	EnhanceOnly Capability = 0
	Render3D    Capability = 1 << 0
	ExportData  Capability = 1 << 1
)

func (c Capability) Has(flag Capability) bool { return c&flag == flag && flag != 0 }

func (c Capability) String() string {
	switch c {
	case EnhanceOnly:
		return "enhance"
	case Render3D:
		return "enhance+3d"
	case ExportData:
		return "enhance+data"
	case Render3D | ExportData:
		return "enhance+3d+data"
	default:
		return "unknown"
	}
}

// Options configures a single job.
type Options struct {
	Scheme         ColorScheme
	Capabilities   Capability
	DPI            int
	HideDimensions bool
	HideLabels     bool
}

// Result holds everything read back from the tool's outputs.
type Result struct {
	Image  []byte
	View3D []byte
	Data   *PlanData
}

// PlanData is the structured export written with --export-data.
type PlanData struct {
	Rooms      []Room          `json:"rooms,omitempty"`
	Dimensions *Dimensions     `json:"dimensions,omitempty"`
	TotalArea  float64         `json:"total_area,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

type Room struct {
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Length float64 `json:"length,omitempty"`
	Area   float64 `json:"area,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Unit   string  `json:"unit,omitempty"`
}
