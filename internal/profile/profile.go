package profile

import (
	"fmt"
	"strings"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/mask"
)

// DefaultThreshold is the noise floor: row or column sums at or below it
// are treated as blank.
const DefaultThreshold = 5

// Axis selects the profile direction
type Axis int

const (
	// Row sums each row of the mask (horizontal projection), one value per y
	Row Axis = iota
	// Column sums each column of the mask (vertical projection), one value per x
	Column
)

// String returns a string representation of the axis
func (a Axis) String() string {
	switch a {
	case Row:
		return "row"
	case Column:
		return "column"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis maps "row" and "column" to an Axis
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "rows", "horizontal":
		return Row, nil
	case "column", "columns", "col", "vertical":
		return Column, nil
	default:
		return 0, fmt.Errorf("%w: unknown axis %q", errs.ErrInvalidInput, s)
	}
}

// Profile holds one ink count per row or column
type Profile []int

// Build projects the mask onto the axis. Sums <= threshold become 0.
func Build(m *mask.Mask, axis Axis, threshold int) (Profile, error) {
	if m.Empty() {
		return nil, fmt.Errorf("%w: cannot project an empty mask", errs.ErrInvalidInput)
	}
	if len(m.Pix) != m.Width*m.Height {
		return nil, fmt.Errorf("%w: mask has %d values for %dx%d", errs.ErrInvalidInput, len(m.Pix), m.Width, m.Height)
	}

	var p Profile
	switch axis {
	case Row:
		p = make(Profile, m.Height)
		for y := 0; y < m.Height; y++ {
			row := m.Pix[y*m.Width : (y+1)*m.Width]
			sum := 0
			for _, v := range row {
				sum += int(v)
			}
			p[y] = sum
		}
	case Column:
		p = make(Profile, m.Width)
		for y := 0; y < m.Height; y++ {
			row := m.Pix[y*m.Width : (y+1)*m.Width]
			for x, v := range row {
				p[x] += int(v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: invalid axis %v", errs.ErrInvalidInput, axis)
	}

	for i, v := range p {
		if v <= threshold {
			p[i] = 0
		}
	}
	return p, nil
}

// Max returns the largest value in the profile
func (p Profile) Max() int {
	m := 0
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}

// Run is a maximal stretch of indices sharing the same zero/non-zero class
type Run struct {
	First   int
	Last    int
	Content bool
}

// Len returns the number of indices covered by the run
func (r Run) Len() int {
	return r.Last - r.First + 1
}

// Runs splits the profile into alternating gap and content runs
func (p Profile) Runs() []Run {
	var runs []Run
	for i, v := range p {
		content := v != 0
		if len(runs) > 0 && runs[len(runs)-1].Content == content {
			runs[len(runs)-1].Last = i
			continue
		}
		runs = append(runs, Run{First: i, Last: i, Content: content})
	}
	return runs
}
