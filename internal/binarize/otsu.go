package binarize

import (
	"image"

	"github.com/ivlev/pageseg/internal/mask"
)

// Otsu applies a single global threshold chosen to maximise the variance
// between dark and light pixels. Pixels at or below it are ink.
type Otsu struct{}

func (o *Otsu) Binarize(img *image.Gray) (*mask.Mask, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}

	b := img.Bounds()
	t := otsuThreshold(img)
	m := mask.New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y <= t {
				m.Set(x, y, 1)
			}
		}
	}
	return m, nil
}

func otsuThreshold(img *image.Gray) uint8 {
	var histo [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			histo[img.GrayAt(x, y).Y]++
		}
	}

	total := b.Dx() * b.Dy()
	var totalWeighted int
	for v, n := range histo {
		totalWeighted += v * n
	}

	var (
		best        uint8
		bestVar     float64
		dark        int
		darkWeighed int
	)
	for v, n := range histo {
		dark += n
		darkWeighed += v * n
		light := total - dark
		if dark == 0 || light == 0 {
			continue
		}

		darkMean := float64(darkWeighed) / float64(dark)
		lightMean := float64(totalWeighted-darkWeighed) / float64(light)
		d := darkMean - lightMean
		variance := float64(dark) * float64(light) * d * d
		if variance > bestVar {
			bestVar = variance
			best = uint8(v)
		}
	}
	return best
}
