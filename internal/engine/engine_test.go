package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ivlev/pageseg/internal/binarize"
	"github.com/ivlev/pageseg/internal/config"
	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/manifest"
	"github.com/ivlev/pageseg/internal/mask"
	"github.com/ivlev/pageseg/internal/output"
	"github.com/ivlev/pageseg/internal/segment"
)

// testPage draws three text bands on a white 100x60 page at rows 10-14,
// 30-34 and 37-41. Each band is made of three blocks at x 10-29, 40-59
// and 70-89.
func testPage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, y0 := range []int{10, 30, 37} {
		for _, x0 := range []int{10, 40, 70} {
			r := image.Rect(x0, y0, x0+20, y0+5)
			draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
		}
	}
	return img
}

func TestSegmentModes(t *testing.T) {
	gray := binarize.ToGray(testPage())

	tests := []struct {
		mode  segment.Mode
		want  []segment.Interval
		sizes []image.Point
	}{
		// naive: cuts at gap midpoints 4, 22, 35; the last start has no end
		{segment.Lines, []segment.Interval{{Start: 4, End: 22}}, []image.Point{image.Pt(100, 19)}},
		// merge: lines open at 9 and 29, the band at 37 joins the second,
		// and the first line is dropped
		{segment.MergedLines, []segment.Interval{{Start: 29, End: 42}}, []image.Point{image.Pt(100, 14)}},
		// columns: gaps 0-9, 30-39, 60-69 close; 90-99 stays open
		{segment.Glyphs, []segment.Interval{{Start: 4, End: 34}}, []image.Point{image.Pt(31, 60)}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Mode = tt.mode

			res, err := Segment(gray, &binarize.Otsu{}, opts)
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if len(res.Intervals) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, res.Intervals)
			}
			for i, iv := range res.Intervals {
				if iv != tt.want[i] {
					t.Errorf("interval %d: expected %v, got %v", i, tt.want[i], iv)
				}
				size := res.Crops[i].Image.Bounds().Size()
				if size != tt.sizes[i] {
					t.Errorf("crop %d: expected size %v, got %v", i, tt.sizes[i], size)
				}
			}
		})
	}
}

func TestSegmentMaskMismatch(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	_, err := SegmentMask(img, mask.New(10, 9), DefaultOptions())
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for mismatched mask, got %v", err)
	}

	if _, err := Segment(img, nil, DefaultOptions()); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput without binarizer, got %v", err)
	}
}

func TestSegmentBlankPage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	res, err := Segment(img, &binarize.Otsu{}, DefaultOptions())
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(res.Intervals) != 0 || len(res.Crops) != 0 {
		t.Errorf("Expected no lines on a blank page, got %v", res.Intervals)
	}
}

type memSource struct {
	pages []image.Image
	names []string
}

func (s *memSource) PageCount() int { return len(s.pages) }
func (s *memSource) PageName(index int) string {
	if s.names != nil {
		return s.names[index]
	}
	return fmt.Sprintf("page_%03d", index+1)
}
func (s *memSource) Close() error              { return nil }
func (s *memSource) RenderPage(index int, dpi int) (image.Image, error) {
	return s.pages[index], nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Input = "memory"
	cfg.Output = t.TempDir()
	cfg.Binarizer = "otsu"
	cfg.Workers = 2
	return cfg
}

func exists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected %s to exist: %v", path, err)
	}
}

func TestProjectRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cascade = true
	cfg.Plot = true

	src := &memSource{pages: []image.Image{testPage(), testPage()}}
	sink := output.NewDirSink(cfg.Output, output.Stage{})
	project := NewProject(cfg, src, &binarize.Otsu{}, sink)

	m, err := project.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(m.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(m.Pages))
	}

	for _, page := range []string{"page_001", "page_002"} {
		dir := filepath.Join(cfg.Output, page)
		exists(t, filepath.Join(dir, "Line 0.png"))
		exists(t, filepath.Join(dir, "Line 0", "0.png"))
		exists(t, filepath.Join(cfg.Output, PlotDir, page+".png"))
	}

	line, err := imaging.Open(filepath.Join(cfg.Output, "page_001", "Line 0.png"))
	if err != nil {
		t.Fatalf("Open crop failed: %v", err)
	}
	if line.Bounds().Dx() != 100 || line.Bounds().Dy() != 14 {
		t.Errorf("Expected 100x14 line crop, got %v", line.Bounds())
	}

	saved, err := manifest.Read(filepath.Join(cfg.Output, ManifestFile))
	if err != nil {
		t.Fatalf("Read manifest failed: %v", err)
	}
	page := saved.Pages[1]
	if page.Name != "page_002" || page.Mode != "merged-lines" || page.MinGap != 3 {
		t.Errorf("Unexpected page entry: %+v", page)
	}
	if len(page.Segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(page.Segments))
	}
	seg := page.Segments[0]
	if seg.Name != "Line 0" || seg.Start != 29 || seg.End != 42 {
		t.Errorf("Expected Line 0 (29, 42), got %s (%d, %d)", seg.Name, seg.Start, seg.End)
	}
	if len(seg.Glyphs) != 1 || seg.Glyphs[0].Start != 4 || seg.Glyphs[0].End != 34 {
		t.Errorf("Expected one glyph (4, 34), got %+v", seg.Glyphs)
	}
}

func TestProjectRunLines(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "lines"

	src := &memSource{pages: []image.Image{testPage()}}
	project := NewProject(cfg, src, &binarize.Otsu{}, output.NewDirSink(cfg.Output, nil))
	m, err := project.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	exists(t, filepath.Join(cfg.Output, "page_001", "Line0.png"))
	seg := m.Pages[0].Segments[0]
	if seg.Start != 4 || seg.End != 22 {
		t.Errorf("Expected (4, 22), got (%d, %d)", seg.Start, seg.End)
	}
	if m.Pages[0].MinGap != 0 {
		t.Errorf("Expected no min gap recorded for lines mode, got %d", m.Pages[0].MinGap)
	}
}

type failingSink struct {
	output.Sink
	aborted int
}

type failingBatch struct {
	sink *failingSink
}

func (s *failingSink) Open(ctx context.Context, target string) (output.Batch, error) {
	return &failingBatch{sink: s}, nil
}

func (b *failingBatch) Put(ctx context.Context, name string, img image.Image) error {
	return errors.New("disk full")
}

func (b *failingBatch) Close() error { return nil }

func (b *failingBatch) Abort() error {
	b.sink.aborted++
	return nil
}

func TestProjectRunFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers = 1
	sink := &failingSink{}

	src := &memSource{pages: []image.Image{testPage()}}
	_, err := NewProject(cfg, src, &binarize.Otsu{}, sink).Run(context.Background())
	if err == nil {
		t.Fatal("Expected run to fail")
	}
	if sink.aborted != 1 {
		t.Errorf("Expected the batch to be aborted once, got %d", sink.aborted)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output, ManifestFile)); err == nil {
		t.Error("Expected no manifest after a failed run")
	}
}

func TestProjectRunEmptySource(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewProject(cfg, &memSource{}, &binarize.Otsu{}, output.NewDirSink(cfg.Output, nil)).Run(context.Background())
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestProjectRunPageNames(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"shared", []string{"scan", "scan"}},
		{"case", []string{"Scan", "scan"}},
		{"plot dir", []string{"plots", "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			src := &memSource{pages: []image.Image{testPage(), testPage()}, names: tt.names}
			_, err := NewProject(cfg, src, &binarize.Otsu{}, output.NewDirSink(cfg.Output, nil)).Run(context.Background())
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
			entries, _ := os.ReadDir(cfg.Output)
			if len(entries) != 0 {
				t.Errorf("Expected no output, found %d entries", len(entries))
			}
		})
	}
}
