package segment

import "github.com/ivlev/pageseg/internal/profile"

// mergeScanner opens a line on every content run unless the run starts
// less than minGap after the previous line ended, in which case the
// previous line is extended instead.
type mergeScanner struct {
	state   scanState
	merging bool
	minGap  int
	starts  []int
	ends    []int
}

func newMergeScanner(minGap int) *mergeScanner {
	return &mergeScanner{state: stateGap, minGap: minGap}
}

// gapTo returns the distance from the last line end to i. ok is false
// before any line has ended.
func (s *mergeScanner) gapTo(i int) (gap int, ok bool) {
	if len(s.ends) == 0 {
		return 0, false
	}
	return i - s.ends[len(s.ends)-1], true
}

func (s *mergeScanner) step(i, v int) {
	switch {
	case s.state == stateGap && v != 0:
		if gap, ok := s.gapTo(i); ok && gap < s.minGap {
			s.merging = true
		} else {
			s.starts = append(s.starts, i-1)
		}
		s.state = stateContent
	case s.state == stateContent && v == 0:
		if s.merging {
			s.ends[len(s.ends)-1] = i
			s.merging = false
		} else {
			s.ends = append(s.ends, i)
		}
		s.state = stateGap
	}
}

// lines applies the discard-first policy and pairs the result. The first
// detection is taken to be the top margin of the page.
func (s *mergeScanner) lines() []Interval {
	starts, ends := s.starts, s.ends
	if len(starts) > 0 && len(ends) > 0 {
		starts, ends = starts[1:], ends[1:]
	}
	return pair(starts, ends)
}

// Merge segments a row profile into lines, joining content runs separated
// by fewer than minGap blank rows. The first line found is always dropped.
func Merge(p profile.Profile, minGap int) ([]Interval, error) {
	if err := checkProfile(p); err != nil {
		return nil, err
	}

	s := newMergeScanner(minGap)
	for i, v := range p {
		s.step(i, v)
	}
	return s.lines(), nil
}
