package segment

import "github.com/ivlev/pageseg/internal/profile"

// naiveScanner cuts at the midpoint of every closed gap and labels the cuts
// start, end, start, end... regardless of how many content runs separate
// them.
type naiveScanner struct {
	state       scanState
	gapFirst    int
	expectStart bool
	starts      []int
	ends        []int
}

func newNaiveScanner() *naiveScanner {
	// The leading edge counts as content so a leading zero-run opens a gap.
	return &naiveScanner{state: stateContent, expectStart: true}
}

func (s *naiveScanner) step(i, v int) {
	switch {
	case s.state == stateContent && v == 0:
		s.gapFirst = i
		s.state = stateGap
	case s.state == stateGap && v != 0:
		// gap closed at i-1
		mid := (s.gapFirst + i - 1) / 2
		if s.expectStart {
			s.starts = append(s.starts, mid)
		} else {
			s.ends = append(s.ends, mid)
		}
		s.expectStart = !s.expectStart
		s.state = stateContent
	}
}

// Naive extracts intervals from gap midpoints. A gap still open at the end
// of the profile yields no cut.
func Naive(p profile.Profile) ([]Interval, error) {
	if err := checkProfile(p); err != nil {
		return nil, err
	}

	s := newNaiveScanner()
	for i, v := range p {
		s.step(i, v)
	}
	return pair(s.starts, s.ends), nil
}
