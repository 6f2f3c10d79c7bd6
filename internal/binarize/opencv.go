//go:build gocv

package binarize

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ivlev/pageseg/internal/mask"
)

func init() {
	openCV = func(opts Options) Binarizer {
		return &OpenCV{BlockSize: opts.BlockSize, Offset: opts.Offset}
	}
}

// OpenCV runs cv::adaptiveThreshold with a Gaussian kernel and an inverted
// binary output of 0/1.
type OpenCV struct {
	BlockSize int
	Offset    float64
}

func (o *OpenCV) Binarize(img *image.Gray) (*mask.Mask, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if err := checkWindow("block size", o.BlockSize); err != nil {
		return nil, err
	}

	b := img.Bounds()
	gray := img
	if b.Min != (image.Point{}) || img.Stride != b.Dx() {
		gray = ToGray(img)
	}

	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("could not wrap image: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.AdaptiveThreshold(src, &dst, 1, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, o.BlockSize, float32(o.Offset))

	return mask.FromValues(b.Dx(), b.Dy(), dst.ToBytes())
}
