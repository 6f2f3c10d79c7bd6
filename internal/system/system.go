package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ivlev/pageseg/internal/source"
)

// DefaultInputDir is searched when no input is given
const DefaultInputDir = "input"

// isInput reports whether a file can be opened as a source
func isInput(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || source.IsImage(name)
}

// FindLatestInput returns the most recently modified PDF or image in dir
func FindLatestInput(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !isInput(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no pdf or image files found in %s", dir)
	}

	return latestFile, nil
}

// pageBudget is the memory one in-flight page needs: an A4 page at 300 dpi
// as RGBA plus its gray copy, mask and crops
const pageBudget = 2480 * 3508 * 8

// RecommendedWorkers returns the number of pages to process at once: one
// per logical CPU, capped so every worker has pageBudget bytes available.
func RecommendedWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}

	vm, err := mem.VirtualMemory()
	if err == nil && vm.Available > 0 {
		n = min(n, int(vm.Available/pageBudget))
	}
	return max(n, 1)
}
