package crop

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/profile"
	"github.com/ivlev/pageseg/internal/segment"
)

// Crop is one emitted line or glyph image
type Crop struct {
	Index    int
	Interval segment.Interval
	Rect     image.Rectangle
	Image    image.Image
}

// Rect returns the source rectangle an interval covers. Rows are taken
// end-inclusive, columns as [Start, End+1); both cover the End pixel.
func Rect(bounds image.Rectangle, axis profile.Axis, iv segment.Interval) (image.Rectangle, error) {
	var r image.Rectangle
	switch axis {
	case profile.Row:
		r = image.Rect(bounds.Min.X, bounds.Min.Y+iv.Start, bounds.Max.X, bounds.Min.Y+iv.End+1)
	case profile.Column:
		r = image.Rect(bounds.Min.X+iv.Start, bounds.Min.Y, bounds.Min.X+iv.End+1, bounds.Max.Y)
	default:
		return image.Rectangle{}, fmt.Errorf("%w: invalid axis %v", errs.ErrInvalidInput, axis)
	}

	clipped := r.Intersect(bounds)
	if clipped.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: interval %v lies outside %v", errs.ErrInvalidInput, iv, bounds)
	}
	return clipped, nil
}

// Emit crops img once per interval, in order
func Emit(img image.Image, axis profile.Axis, intervals []segment.Interval) ([]Crop, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", errs.ErrInvalidInput)
	}

	bounds := img.Bounds()
	crops := make([]Crop, 0, len(intervals))
	for i, iv := range intervals {
		r, err := Rect(bounds, axis, iv)
		if err != nil {
			return nil, err
		}
		crops = append(crops, Crop{
			Index:    i,
			Interval: iv,
			Rect:     r,
			Image:    imaging.Crop(img, r),
		})
	}
	return crops, nil
}
