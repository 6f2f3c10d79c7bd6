// Package engine drives segmentation over a whole document: pages are
// rendered, binarized, segmented and their crops persisted in parallel.
package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/pageseg/internal/binarize"
	"github.com/ivlev/pageseg/internal/config"
	"github.com/ivlev/pageseg/internal/crop"
	"github.com/ivlev/pageseg/internal/errs"
	"github.com/ivlev/pageseg/internal/manifest"
	"github.com/ivlev/pageseg/internal/mask"
	"github.com/ivlev/pageseg/internal/output"
	"github.com/ivlev/pageseg/internal/plot"
	"github.com/ivlev/pageseg/internal/profile"
	"github.com/ivlev/pageseg/internal/segment"
	"github.com/ivlev/pageseg/internal/source"
	"github.com/ivlev/pageseg/internal/system"
)

const (
	ManifestFile = "manifest.yaml"
	PlotDir      = "plots"
)

type Project struct {
	Config    *config.Config
	Source    source.Source
	Binarizer binarize.Binarizer
	Sink      output.Sink
	Log       *log.Entry
}

func NewProject(cfg *config.Config, src source.Source, bin binarize.Binarizer, sink output.Sink) *Project {
	return &Project{
		Config:    cfg,
		Source:    src,
		Binarizer: bin,
		Sink:      sink,
		Log:       log.WithFields(log.Fields{"input": cfg.Input}),
	}
}

func (p *Project) options() Options {
	return Options{
		Mode:      p.Config.SegmentMode(),
		Threshold: p.Config.Threshold,
		MinGap:    p.Config.MinGap,
	}
}

func (p *Project) workers(pageCount int) int {
	n := p.Config.Workers
	if n <= 0 {
		n = system.RecommendedWorkers()
	}
	return max(min(n, pageCount), 1)
}

// Run segments every page and returns the manifest of the run. The first
// failing page cancels the others and its error is returned.
func (p *Project) Run(ctx context.Context) (*manifest.Manifest, error) {
	startTime := time.Now()

	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: source has no pages", errs.ErrInvalidInput)
	}

	if err := p.checkPageNames(pageCount); err != nil {
		return nil, err
	}

	opts := p.options()
	workers := p.workers(pageCount)
	p.Log.WithFields(log.Fields{
		"pages":     pageCount,
		"workers":   workers,
		"mode":      opts.Mode,
		"threshold": opts.Threshold,
		"minGap":    opts.MinGap,
	}).Infoln("segmenting")

	pages := make([]manifest.Page, pageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			page, err := p.processPage(gctx, i, opts)
			if err != nil {
				return fmt.Errorf("page %s: %w", p.Source.PageName(i), err)
			}
			pages[i] = *page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := manifest.New(p.Config.Input)
	m.Pages = pages
	if p.Config.Output != "" {
		if err := os.MkdirAll(p.Config.Output, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(p.Config.Output, ManifestFile)
		if err := manifest.Write(m, path); err != nil {
			return nil, fmt.Errorf("could not write manifest: %w", err)
		}
	}

	p.Log.WithFields(log.Fields{
		"build":    p.Config.BuildVersion,
		"pages":    pageCount,
		"segments": m.Count(),
		"elapsed":  time.Since(startTime).Round(time.Millisecond),
	}).Infoln("done")
	return m, nil
}

// checkPageNames rejects sources whose pages would share an output target
// or land on the plot directory. Case is ignored so the check also holds
// on case-insensitive filesystems.
func (p *Project) checkPageNames(pageCount int) error {
	seen := make(map[string]int, pageCount)
	for i := 0; i < pageCount; i++ {
		name := p.Source.PageName(i)
		key := strings.ToLower(name)
		if key == PlotDir || key == ManifestFile {
			return fmt.Errorf("%w: page %d is named %q, which is reserved", errs.ErrInvalidInput, i, name)
		}
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%w: pages %d and %d share the output name %q", errs.ErrInvalidInput, j, i, name)
		}
		seen[key] = i
	}
	return nil
}

func (p *Project) processPage(ctx context.Context, index int, opts Options) (*manifest.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := p.Source.PageName(index)
	logger := p.Log.WithFields(log.Fields{"page": name})

	img, err := p.Source.RenderPage(index, p.Config.DPI)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: page renders empty", errs.ErrInvalidInput)
	}

	gray := system.GetGray(b.Dx(), b.Dy())
	binarize.DrawGray(gray, img)
	m, err := p.Binarizer.Binarize(gray)
	system.PutGray(gray)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	res, err := SegmentMask(img, m, opts)
	if err != nil {
		return nil, err
	}

	page := &manifest.Page{
		Index:         index,
		Name:          name,
		Mode:          opts.Mode.String(),
		Axis:          res.Axis.String(),
		Threshold:     opts.Threshold,
		ProfileLength: len(res.Profile),
		Segments:      manifest.Segments(opts.Mode, res.Intervals),
	}
	if opts.Mode == segment.MergedLines {
		page.MinGap = opts.MinGap
	}

	batch, err := p.Sink.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := p.persist(ctx, batch, page, res, m, b.Min); err != nil {
		if aerr := batch.Abort(); aerr != nil {
			logger.WithError(aerr).Warnln("could not discard partial output")
		}
		return nil, err
	}
	if err := batch.Close(); err != nil {
		return nil, err
	}

	if p.Config.Plot {
		if err := p.plot(name, res); err != nil {
			logger.WithError(err).Warnln("could not plot profile")
		}
	}

	logger.WithFields(log.Fields{
		"segments": len(res.Crops),
		"size":     fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
	}).Debugln("page segmented")
	return page, nil
}

// persist writes the crops of res, cascading line crops into glyphs when
// configured. origin is the top-left of the page image.
func (p *Project) persist(ctx context.Context, batch output.Batch, page *manifest.Page, res *Result, m *mask.Mask, origin image.Point) error {
	cascade := p.Config.Cascade && res.Axis == profile.Row
	for _, c := range res.Crops {
		name := res.Mode.Name(c.Index)
		if err := batch.Put(ctx, name, c.Image); err != nil {
			return err
		}
		if !cascade {
			continue
		}
		glyphs, err := p.cascade(ctx, batch, name, c, m.Sub(c.Rect.Sub(origin)))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		page.Segments[c.Index].Glyphs = glyphs
	}
	return nil
}

// cascade cuts one line crop into glyphs stored as "<line>/<glyph>"
func (p *Project) cascade(ctx context.Context, batch output.Batch, line string, c crop.Crop, m *mask.Mask) ([]manifest.Segment, error) {
	res, err := SegmentMask(c.Image, m, Options{Mode: segment.Glyphs, Threshold: p.Config.Threshold})
	if err != nil {
		return nil, err
	}
	for _, g := range res.Crops {
		if err := batch.Put(ctx, line+"/"+res.Mode.Name(g.Index), g.Image); err != nil {
			return nil, err
		}
	}
	return manifest.Segments(segment.Glyphs, res.Intervals), nil
}

func (p *Project) plot(name string, res *Result) error {
	if p.Config.Output == "" {
		return nil
	}
	dir := filepath.Join(p.Config.Output, PlotDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, name+".png"))
	if err != nil {
		return err
	}
	if err := plot.Profile(f, res.Profile, res.Intervals, fmt.Sprintf("%s (%s)", name, res.Axis)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
