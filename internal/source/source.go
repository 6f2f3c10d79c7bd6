// Package source yields the pages of a document as images.
package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/pageseg/internal/errs"
)

// Source is a paged document
type Source interface {
	PageCount() int
	// PageName is the output target of a page; unique within a source
	PageName(index int) string
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a PDF source for .pdf files and an image source otherwise
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open pdf %s: %v", errs.ErrInvalidInput, path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) PageName(index int) string {
	return fmt.Sprintf("page_%03d", index+1)
}

// RenderPage opens its own document handle; fitz documents are not safe
// for concurrent use.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= f.PageCount() {
		return nil, fmt.Errorf("%w: page %d out of range", errs.ErrInvalidInput, index)
	}
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
