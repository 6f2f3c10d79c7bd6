package binarize

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/mask"
)

// Binarizer converts a grayscale page into an ink mask of the same size
type Binarizer interface {
	Binarize(img *image.Gray) (*mask.Mask, error)
}

// Options carries the tunables of every binarizer variant
type Options struct {
	BlockSize int     // neighbourhood for adaptive thresholds, odd
	Offset    float64 // subtracted from the local mean
	K         float64 // Sauvola k
	Window    int     // Sauvola window, odd
}

// DefaultOptions uses block 11 and offset 1 for the adaptive threshold
func DefaultOptions() Options {
	return Options{
		BlockSize: 11,
		Offset:    1,
		K:         0.5,
		Window:    31,
	}
}

// openCV is set when built with the gocv tag
var openCV func(Options) Binarizer

// New creates a binarizer based on the specified variant
func New(variant string, opts Options) (Binarizer, error) {
	switch variant {
	case "gaussian", "":
		return &Gaussian{BlockSize: opts.BlockSize, Offset: opts.Offset}, nil
	case "sauvola":
		return &Sauvola{K: opts.K, WindowSize: opts.Window}, nil
	case "otsu":
		return &Otsu{}, nil
	case "opencv":
		if openCV == nil {
			return nil, fmt.Errorf("opencv binarizer requires building with -tags gocv")
		}
		return openCV(opts), nil
	default:
		return nil, fmt.Errorf("unknown binarizer variant: %s", variant)
	}
}

// ToGray converts an image to an origin-anchored grayscale image
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	DrawGray(gray, img)
	return gray
}

// DrawGray paints img into dst, which must have the same size
func DrawGray(dst *image.Gray, img image.Image) {
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
}

func checkImage(img *image.Gray) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: empty image", errs.ErrInvalidInput)
	}
	return nil
}

func checkWindow(name string, size int) error {
	if size < 3 || size%2 == 0 {
		return fmt.Errorf("%w: %s must be odd and >= 3, got %d", errs.ErrInvalidInput, name, size)
	}
	return nil
}
