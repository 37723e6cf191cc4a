package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// AgentSpec describes the unit that walks routes.
type AgentSpec struct {
	Name           string     `yaml:"name"`
	SegmentSeconds float64    `yaml:"segment_seconds"`
	Size           float64    `yaml:"size"`
	Glyph          string     `yaml:"glyph"`
	Color          *YAMLColor `yaml:"color"`
	PathColor      *YAMLColor `yaml:"path_color"`
	StepTone       float64    `yaml:"step_tone"`
}

// SegmentDuration is zero when segment_seconds is unset, leaving the
// coordinator default in place.
func (s *AgentSpec) SegmentDuration() time.Duration {
	if s == nil || s.SegmentSeconds <= 0 {
		return 0
	}
	return time.Duration(s.SegmentSeconds * float64(time.Second))
}

// GlyphRune is the first rune of Glyph, or '@'.
func (s *AgentSpec) GlyphRune() rune {
	if s != nil {
		for _, r := range s.Glyph {
			return r
		}
	}
	return '@'
}

func LoadAgentSpec() (*AgentSpec, error) {
	data, err := Load("agent.yaml")
	if err != nil {
		return nil, fmt.Errorf("prefabs: load agent.yaml: %w", err)
	}
	var spec AgentSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal agent.yaml: %w", err)
	}
	return &spec, nil
}

type ViewerSpec struct {
	Level           string     `yaml:"level"`
	TileSize        float64    `yaml:"tile_size"`
	Seed            int64      `yaml:"seed"`
	ShowLineOfSight bool       `yaml:"show_line_of_sight"`
	Physics         bool       `yaml:"physics"`
	AutoRoute       bool       `yaml:"auto_route"`
	Background      *YAMLColor `yaml:"background"`
	Wall            *YAMLColor `yaml:"wall"`
	Floor           *YAMLColor `yaml:"floor"`
	Sight           *YAMLColor `yaml:"sight"`
}

func LoadViewerSpec() (*ViewerSpec, error) {
	spec, err := LoadSpec[ViewerSpec]("viewer.yaml")
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

type YAMLColor struct {
	color.Color
}

// Or returns the wrapped color, or fallback when the field was not set.
func (c *YAMLColor) Or(fallback color.Color) color.Color {
	if c == nil || c.Color == nil {
		return fallback
	}
	return c.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
