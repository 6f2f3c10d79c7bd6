package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ivlev/pageseg/internal/errs"
)

// OverwriteStrategy decides how an output directory is prepared and
// finalized. Prepare returns the directory crops are written into.
type OverwriteStrategy interface {
	Prepare(dir string) (string, error)
	Finalize(work, dir string) error
	Discard(work, dir string) error
}

// NewStrategy returns the strategy registered under name
func NewStrategy(name string) (OverwriteStrategy, error) {
	switch name {
	case "recreate", "":
		return Recreate{}, nil
	case "stage":
		return Stage{}, nil
	case "refuse":
		return Refuse{}, nil
	default:
		return nil, fmt.Errorf("unknown overwrite strategy: %s", name)
	}
}

// existingDir reports whether dir exists. A non-directory at the path is
// a conflict.
func existingDir(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("%w: %s exists and is not a directory", errs.ErrDirectoryConflict, dir)
	}
	return true, nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
	}
	return nil
}

// Recreate wipes an existing directory and creates it afresh
type Recreate struct{}

func (Recreate) Prepare(dir string) (string, error) {
	exists, err := existingDir(dir)
	if err != nil {
		return "", err
	}
	if exists {
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
		}
	}
	return dir, mkdir(dir)
}

func (Recreate) Finalize(work, dir string) error {
	return nil
}

func (Recreate) Discard(work, dir string) error {
	return nil
}

// Stage writes into a temporary sibling directory and swaps it into place
// once the batch is complete. A crash leaves the old directory untouched.
type Stage struct{}

func (Stage) Prepare(dir string) (string, error) {
	if _, err := existingDir(dir); err != nil {
		return "", err
	}
	parent := filepath.Dir(dir)
	if err := mkdir(parent); err != nil {
		return "", err
	}
	work, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-stage-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
	}
	return work, nil
}

func (Stage) Finalize(work, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
	}
	if err := os.Rename(work, dir); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDirectoryConflict, err)
	}
	return nil
}

// Discard drops the staging directory; dir is untouched
func (Stage) Discard(work, dir string) error {
	return os.RemoveAll(work)
}

// Refuse never touches existing output
type Refuse struct{}

func (Refuse) Prepare(dir string) (string, error) {
	exists, err := existingDir(dir)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s already exists", errs.ErrDirectoryConflict, dir)
	}
	return dir, mkdir(dir)
}

func (Refuse) Finalize(work, dir string) error {
	return nil
}

func (Refuse) Discard(work, dir string) error {
	return nil
}
