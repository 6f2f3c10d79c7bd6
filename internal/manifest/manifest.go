// Package manifest records what a run produced: one entry per page with the
// parameters used and the intervals found on it.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/pageseg/internal/segment"
)

const Version = "1.0"

// Manifest describes a complete run
type Manifest struct {
	Version string `yaml:"version"`
	Source  string `yaml:"source"`
	Pages   []Page `yaml:"pages"`
}

// Page holds the segmentation result of one page
type Page struct {
	Index         int       `yaml:"index"`
	Name          string    `yaml:"name"`
	Mode          string    `yaml:"mode"`
	Axis          string    `yaml:"axis"`
	Threshold     int       `yaml:"threshold"`
	MinGap        int       `yaml:"min_gap,omitempty"`
	ProfileLength int       `yaml:"profile_length"`
	Segments      []Segment `yaml:"segments"`
}

// Segment is one emitted crop. Glyphs is only set when lines were cascaded
// into glyph crops.
type Segment struct {
	Index  int       `yaml:"index"`
	Name   string    `yaml:"name"`
	Start  int       `yaml:"start"`
	End    int       `yaml:"end"`
	Glyphs []Segment `yaml:"glyphs,omitempty"`
}

// New returns an empty manifest for source
func New(source string) *Manifest {
	return &Manifest{Version: Version, Source: source}
}

// Segments converts extracted intervals into manifest entries
func Segments(mode segment.Mode, intervals []segment.Interval) []Segment {
	out := make([]Segment, len(intervals))
	for i, iv := range intervals {
		out[i] = Segment{Index: i, Name: mode.Name(i), Start: iv.Start, End: iv.End}
	}
	return out
}

// Count returns the number of segments over all pages, glyphs included
func (m *Manifest) Count() int {
	var n int
	for _, p := range m.Pages {
		for _, s := range p.Segments {
			n += 1 + len(s.Glyphs)
		}
	}
	return n
}

// Write writes a manifest to a YAML file
func Write(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a manifest from a YAML file
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse manifest %s: %w", path, err)
	}

	return &m, nil
}
