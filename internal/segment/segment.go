// Package segment turns projection profiles into pixel intervals.
//
// Two extractors are provided. Naive pairs gap midpoints with a strict
// start/end alternation, so with more than two content runs every other run
// is skipped. Merge tracks content runs, joins runs separated by fewer than
// minGap blank rows, and always drops the first line it finds. Both
// behaviours are kept as-is; they are what downstream consumers of the
// crops were built against.
package segment

import (
	"fmt"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/profile"
)

// DefaultMinGap is the smallest gap, in rows, that separates two lines
const DefaultMinGap = 3

// Interval is a [Start, End] span of pixel coordinates along the profile axis
type Interval struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Len returns the inclusive length of the interval
func (iv Interval) Len() int {
	return iv.End - iv.Start + 1
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End)
}

// scanState is the position of a scan relative to the zero/content runs
type scanState int

const (
	stateGap scanState = iota
	stateContent
)

func (s scanState) String() string {
	if s == stateGap {
		return "gap"
	}
	return "content"
}

// pair zips starts and ends positionally, dropping unmatched starts
func pair(starts, ends []int) []Interval {
	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	out := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Interval{Start: starts[i], End: ends[i]})
	}
	return out
}

func checkProfile(p profile.Profile) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty profile", errs.ErrInvalidInput)
	}
	return nil
}
