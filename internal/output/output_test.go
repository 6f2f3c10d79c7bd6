package output

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/ivlev/pageseg/internal/errs"
)

func tile() image.Image {
	return image.NewGray(image.Rect(0, 0, 4, 3))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(dir, p)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	sort.Strings(names)
	return names
}

func writeBatch(t *testing.T, sink Sink, target string, names ...string) {
	t.Helper()
	ctx := context.Background()
	b, err := sink.Open(ctx, target)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, n := range names {
		if err := b.Put(ctx, n, tile()); err != nil {
			t.Fatalf("Put %s failed: %v", n, err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestDirSinkRecreate(t *testing.T) {
	root := t.TempDir()
	sink := NewDirSink(root, nil)

	writeBatch(t, sink, "page", "Line 0", "Line 1", "Line 2")
	writeBatch(t, sink, "page", "Line 0")

	got := listDir(t, filepath.Join(root, "page"))
	want := []string{"Line 0.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v after recreate, got %v", want, got)
	}

	f, err := os.Open(filepath.Join(root, "page", "Line 0.png"))
	if err != nil {
		t.Fatalf("Open png failed: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("Expected 4x3 image, got %v", img.Bounds())
	}
}

func TestDirSinkNested(t *testing.T) {
	root := t.TempDir()
	writeBatch(t, NewDirSink(root, Recreate{}), "scan", "Line 0", "Line 0/0", "Line 0/1")

	got := listDir(t, filepath.Join(root, "scan"))
	want := []string{"Line 0.png", "Line 0/0.png", "Line 0/1.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDirSinkStage(t *testing.T) {
	root := t.TempDir()
	sink := NewDirSink(root, Stage{})

	writeBatch(t, sink, "page", "0", "1")

	ctx := context.Background()
	b, err := sink.Open(ctx, "page")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := b.Put(ctx, "2", tile()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// before Close the previous output is still in place
	got := listDir(t, filepath.Join(root, "page"))
	if strings.Join(got, ",") != "0.png,1.png" {
		t.Errorf("Expected old output before Close, got %v", got)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	got = listDir(t, filepath.Join(root, "page"))
	if strings.Join(got, ",") != "2.png" {
		t.Errorf("Expected staged output after Close, got %v", got)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("Expected staging directory to be gone, found %d entries", len(entries))
	}
}

func TestDirSinkStageAbort(t *testing.T) {
	root := t.TempDir()
	sink := NewDirSink(root, Stage{})
	writeBatch(t, sink, "page", "0")

	ctx := context.Background()
	b, err := sink.Open(ctx, "page")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := b.Put(ctx, "1", tile()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := b.Abort(); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	got := listDir(t, root)
	if strings.Join(got, ",") != "page/0.png" {
		t.Errorf("Expected only the previous output, got %v", got)
	}
}

func TestDirSinkConflicts(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "page"), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for _, strategy := range []OverwriteStrategy{Recreate{}, Stage{}, Refuse{}} {
		_, err := NewDirSink(root, strategy).Open(context.Background(), "page")
		if !errors.Is(err, errs.ErrDirectoryConflict) {
			t.Errorf("%T: expected ErrDirectoryConflict, got %v", strategy, err)
		}
	}

	writeBatch(t, NewDirSink(root, Refuse{}), "fresh", "0")
	if _, err := NewDirSink(root, Refuse{}).Open(context.Background(), "fresh"); !errors.Is(err, errs.ErrDirectoryConflict) {
		t.Errorf("Refuse: expected ErrDirectoryConflict for existing dir, got %v", err)
	}
}

func TestBadNames(t *testing.T) {
	sink := NewDirSink(t.TempDir(), nil)
	if _, err := sink.Open(context.Background(), "../escape"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for escaping target, got %v", err)
	}

	b, err := sink.Open(context.Background(), "ok")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	if err := b.Put(context.Background(), "", tile()); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty name, got %v", err)
	}
}

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"recreate", false},
		{"", false},
		{"stage", false},
		{"refuse", false},
		{"merge", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStrategy(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, *in.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
	}
	fn(page, true)
	return nil
}

func (f *fakeS3) DeleteObjectsWithContext(ctx aws.Context, in *s3.DeleteObjectsInput, opts ...request.Option) (*s3.DeleteObjectsOutput, error) {
	for _, o := range in.Delete.Objects {
		delete(f.objects, *o.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"books/page/Line 7.png":  []byte("stale"),
		"books/other/Line 0.png": []byte("keep"),
	}}
	sink := &S3Sink{Client: fake, Bucket: "bucket", Prefix: "books"}

	writeBatch(t, sink, "page", "Line 0", "Line 1")

	var keys []string
	for k := range fake.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := []string{"books/other/Line 0.png", "books/page/Line 0.png", "books/page/Line 1.png"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("Expected keys %v, got %v", want, keys)
	}

	img, err := png.Decode(strings.NewReader(string(fake.objects["books/page/Line 1.png"])))
	if err != nil {
		t.Fatalf("Uploaded object is not a png: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("Expected width 4, got %d", img.Bounds().Dx())
	}
}
