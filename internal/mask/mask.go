package mask

import (
	"fmt"
	"image"

	"github.com/ivlev/pageseg/internal/errs"
)

// Mask is a binary foreground/background matrix, row-major.
// A value of 1 marks ink, 0 marks background.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns an all-background mask of the given size
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromValues wraps caller-supplied values. Every value must be 0 or 1.
func FromValues(width, height int, pix []uint8) (*Mask, error) {
	m := &Mask{Width: width, Height: height, Pix: pix}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the mask shape and its {0,1} value contract
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: mask is nil", errs.ErrInvalidInput)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: mask is empty (%dx%d)", errs.ErrInvalidInput, m.Width, m.Height)
	}
	if len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("%w: mask has %d values, expected %d", errs.ErrInvalidInput, len(m.Pix), m.Width*m.Height)
	}
	for i, v := range m.Pix {
		if v > 1 {
			return fmt.Errorf("%w: mask value %d at (%d,%d) is not 0 or 1",
				errs.ErrInvalidInput, v, i%m.Width, i/m.Width)
		}
	}
	return nil
}

// Empty reports whether the mask has no area
func (m *Mask) Empty() bool {
	return m == nil || m.Width <= 0 || m.Height <= 0
}

// Bounds returns the mask extent as a rectangle anchored at the origin
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v uint8) {
	if v != 0 {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of ink pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		n += int(v)
	}
	return n
}

// Sub copies the part of the mask inside r. r is clipped to the mask.
func (m *Mask) Sub(r image.Rectangle) *Mask {
	r = r.Intersect(m.Bounds())
	sub := New(r.Dx(), r.Dy())
	for y := 0; y < sub.Height; y++ {
		src := m.Pix[(r.Min.Y+y)*m.Width+r.Min.X:]
		copy(sub.Pix[y*sub.Width:(y+1)*sub.Width], src[:sub.Width])
	}
	return sub
}
