package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/profile"
)

// Mode bundles an axis, an extractor and a crop naming scheme
type Mode int

const (
	// Glyphs cuts a line image into characters along the column axis
	Glyphs Mode = iota
	// Lines cuts a page into lines with the naive extractor
	Lines
	// MergedLines cuts a page into lines, merging runs split by small gaps
	MergedLines
)

var modeNames = map[Mode]string{
	Glyphs:      "glyphs",
	Lines:       "lines",
	MergedLines: "merged-lines",
}

// String returns a string representation of the mode
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a mode name to a Mode
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", errs.ErrInvalidInput, s)
}

// Axis returns the profile direction the mode scans
func (m Mode) Axis() profile.Axis {
	if m == Glyphs {
		return profile.Column
	}
	return profile.Row
}

// Name returns the crop name for the i-th interval. Downstream consumers
// rely on the exact spelling per mode.
func (m Mode) Name(i int) string {
	switch m {
	case Lines:
		return "Line" + strconv.Itoa(i)
	case MergedLines:
		return "Line " + strconv.Itoa(i)
	default:
		return strconv.Itoa(i)
	}
}

// Extract runs the mode's extractor over p. minGap only applies to MergedLines.
func (m Mode) Extract(p profile.Profile, minGap int) ([]Interval, error) {
	switch m {
	case Glyphs, Lines:
		return Naive(p)
	case MergedLines:
		return Merge(p, minGap)
	default:
		return nil, fmt.Errorf("%w: unknown mode %v", errs.ErrInvalidInput, m)
	}
}
