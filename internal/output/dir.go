package output

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DirSink writes crops as PNG files below Root
type DirSink struct {
	Root     string
	Strategy OverwriteStrategy
}

// NewDirSink creates a DirSink; a nil strategy means Recreate
func NewDirSink(root string, strategy OverwriteStrategy) *DirSink {
	if strategy == nil {
		strategy = Recreate{}
	}
	return &DirSink{Root: root, Strategy: strategy}
}

func (s *DirSink) Open(ctx context.Context, target string) (Batch, error) {
	target, err := cleanName(target)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Root, filepath.FromSlash(target))
	work, err := s.Strategy.Prepare(dir)
	if err != nil {
		return nil, err
	}
	return &dirBatch{sink: s, dir: dir, work: work}, nil
}

type dirBatch struct {
	sink   *DirSink
	dir    string
	work   string
	closed bool
}

func (b *dirBatch) Put(ctx context.Context, name string, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	path := filepath.Join(b.work, filepath.FromSlash(name)+".png")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

func (b *dirBatch) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.sink.Strategy.Finalize(b.work, b.dir)
}

func (b *dirBatch) Abort() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.sink.Strategy.Discard(b.work, b.dir)
}
