package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/ivlev/pageseg/internal/errs"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// IsImage reports whether the file name has a supported image extension
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ImageSource treats a single image, or every image in a directory sorted
// by name, as pages
type ImageSource struct {
	paths []string
	names []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: no images found in %s", errs.ErrInvalidInput, path)
		}
	} else {
		if !IsImage(path) {
			return nil, fmt.Errorf("%w: unsupported image type %s", errs.ErrInvalidInput, path)
		}
		paths = []string{path}
	}

	return &ImageSource{paths: paths, names: pageNames(paths)}, nil
}

// pageNames strips extensions, keeping the extension as a suffix for
// files that would otherwise share a name ("scan.png", "scan.tif" become
// "scan_png", "scan_tif"). Names are compared case-insensitively.
func pageNames(paths []string) []string {
	stem := func(p string) string {
		base := filepath.Base(p)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	counts := make(map[string]int, len(paths))
	for _, p := range paths {
		counts[strings.ToLower(stem(p))]++
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		name := stem(p)
		if counts[strings.ToLower(name)] > 1 {
			name += "_" + strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		}
		names[i] = name
	}
	return names
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

// PageName is the file name without extension, see pageNames
func (s *ImageSource) PageName(index int) string {
	return s.names[index]
}

// RenderPage decodes the image; dpi is ignored
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("%w: page %d out of range", errs.ErrInvalidInput, index)
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: could not decode %s: %v", errs.ErrInvalidInput, s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
