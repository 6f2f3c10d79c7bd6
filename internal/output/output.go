// Package output persists crops. A Sink opens one Batch per segmentation
// target; every Batch starts from an empty target, so output from an
// earlier run is never merged with a new one.
package output

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/pageseg/internal/errs"
)

// Sink opens batches of crops addressed by target name
type Sink interface {
	Open(ctx context.Context, target string) (Batch, error)
}

// Batch receives the crops of one target. Names may contain "/" to nest
// crops below the target. Close commits the batch; Abort gives up on it
// and leaves earlier output alone where the sink can.
type Batch interface {
	Put(ctx context.Context, name string, img image.Image) error
	Close() error
	Abort() error
}

// cleanName rejects names that would escape the target
func cleanName(name string) (string, error) {
	name = strings.Trim(strings.ReplaceAll(name, "\\", "/"), "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty crop name", errs.ErrInvalidInput)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." || part == "." || part == "" {
			return "", fmt.Errorf("%w: bad crop name %q", errs.ErrInvalidInput, name)
		}
	}
	return name, nil
}
