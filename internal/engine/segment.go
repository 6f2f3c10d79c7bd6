package engine

import (
	"fmt"
	"image"

	"github.com/ivlev/pageseg/internal/binarize"
	"github.com/ivlev/pageseg/internal/crop"
	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/mask"
	"github.com/ivlev/pageseg/internal/profile"
	"github.com/ivlev/pageseg/internal/segment"
)

// Options are the segmentation parameters of a single pass
type Options struct {
	Mode      segment.Mode
	Threshold int
	MinGap    int
}

func DefaultOptions() Options {
	return Options{
		Mode:      segment.MergedLines,
		Threshold: profile.DefaultThreshold,
		MinGap:    segment.DefaultMinGap,
	}
}

// Result is everything one pass produced, in scan order
type Result struct {
	Mode      segment.Mode
	Axis      profile.Axis
	Profile   profile.Profile
	Intervals []segment.Interval
	Crops     []crop.Crop
}

// Segment binarizes img and segments it
func Segment(img *image.Gray, bin binarize.Binarizer, opts Options) (*Result, error) {
	if bin == nil {
		return nil, fmt.Errorf("%w: no binarizer", errs.ErrInvalidInput)
	}
	m, err := bin.Binarize(img)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}
	return SegmentMask(img, m, opts)
}

// SegmentMask segments img using a caller-supplied ink mask, which must
// have the same size as img. Crops are cut from img.
func SegmentMask(img image.Image, m *mask.Mask, opts Options) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", errs.ErrInvalidInput)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != m.Width || b.Dy() != m.Height {
		return nil, fmt.Errorf("%w: mask is %dx%d but image is %dx%d",
			errs.ErrInvalidInput, m.Width, m.Height, b.Dx(), b.Dy())
	}

	axis := opts.Mode.Axis()
	p, err := profile.Build(m, axis, opts.Threshold)
	if err != nil {
		return nil, err
	}
	intervals, err := opts.Mode.Extract(p, opts.MinGap)
	if err != nil {
		return nil, err
	}
	crops, err := crop.Emit(img, axis, intervals)
	if err != nil {
		return nil, err
	}

	return &Result{
		Mode:      opts.Mode,
		Axis:      axis,
		Profile:   p,
		Intervals: intervals,
		Crops:     crops,
	}, nil
}
