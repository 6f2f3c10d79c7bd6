package binarize

import (
	"image"

	"rescribe.xyz/preproc"

	"github.com/ivlev/pageseg/internal/mask"
)

// Sauvola implements Sauvola's algorithm for text binarization, see paper
// "Adaptive document image binarization" (2000). The thresholding runs on
// integral images in preproc; black output pixels become ink.
type Sauvola struct {
	K          float64
	WindowSize int
}

func (s *Sauvola) Binarize(img *image.Gray) (*mask.Mask, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if err := checkWindow("window size", s.WindowSize); err != nil {
		return nil, err
	}

	return inkMask(preproc.IntegralSauvola(img, s.K, s.WindowSize)), nil
}

// inkMask turns a black-on-white binary image into a mask
func inkMask(bin *image.Gray) *mask.Mask {
	b := bin.Bounds()
	m := mask.New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if bin.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0 {
				m.Set(x, y, 1)
			}
		}
	}
	return m
}
