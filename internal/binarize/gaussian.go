package binarize

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ivlev/pageseg/internal/mask"
)

// Gaussian is a local adaptive threshold: a pixel is ink when it is not
// brighter than its Gaussian-weighted neighbourhood mean minus Offset.
//
// The mean is approximate. imaging.Blur spans about 3 sigma, so the
// window is wider than BlockSize (13x13 instead of 11x11 for the default
// block). Build with -tags gocv and use the opencv binarizer to match
// OpenCV's adaptive threshold exactly.
type Gaussian struct {
	BlockSize int
	Offset    float64
}

// sigmaFor returns the sigma OpenCV derives for a kernel of the given size
func sigmaFor(block int) float64 {
	return 0.3*(float64(block-1)*0.5-1) + 0.8
}

func (g *Gaussian) Binarize(img *image.Gray) (*mask.Mask, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if err := checkWindow("block size", g.BlockSize); err != nil {
		return nil, err
	}

	b := img.Bounds()
	mean := imaging.Blur(img, sigmaFor(g.BlockSize))
	m := mask.New(b.Dx(), b.Dy())

	for y := 0; y < b.Dy(); y++ {
		row := mean.Pix[y*mean.Stride:]
		for x := 0; x < b.Dx(); x++ {
			src := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if src <= float64(row[x*4])-g.Offset {
				m.Set(x, y, 1)
			}
		}
	}
	return m, nil
}
