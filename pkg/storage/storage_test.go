package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// minimal 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newTestBucket(maxBytes int64) *Bucket {
	return NewBucket(afero.NewMemMapFs(), "research", "http://cdn.test/storage", Options{
		MaxBytes:      maxBytes,
		DocumentTypes: []string{"application/pdf", "text/plain"},
		Now:           func() time.Time { return time.UnixMilli(1700000000123) },
		Random:        func() string { return "abc123" },
	})
}

func TestUpload_NamingScheme(t *testing.T) {
	b := newTestBucket(0)

	obj, err := b.Upload(context.Background(), "documents", "Thesis.PDF", KindDocument, bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if obj.Name != "documents/1700000000123-abc123.pdf" {
		t.Errorf("unexpected object name %q", obj.Name)
	}
	if obj.URL != "http://cdn.test/storage/research/documents/1700000000123-abc123.pdf" {
		t.Errorf("unexpected url %q", obj.URL)
	}
	if obj.Size != int64(len(pdfBytes)) {
		t.Errorf("expected size %d, got %d", len(pdfBytes), obj.Size)
	}
	if obj.ContentType != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", obj.ContentType)
	}
}

func TestUpload_DefaultNameFormat(t *testing.T) {
	b := NewBucket(afero.NewMemMapFs(), "events", "http://x", Options{})
	obj, err := b.Upload(context.Background(), "images", "poster.png", KindImage, bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !regexp.MustCompile(`^images/\d{13}-[0-9a-f]{12}\.png$`).MatchString(obj.Name) {
		t.Errorf("name %q does not follow folder/timestamp-random.ext", obj.Name)
	}
}

func TestUpload_RejectsWrongKind(t *testing.T) {
	b := newTestBucket(0)

	_, err := b.Upload(context.Background(), "images", "fake.png", KindImage, bytes.NewReader(pdfBytes))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType for pdf as image, got %v", err)
	}

	_, err = b.Upload(context.Background(), "documents", "pic.png", KindDocument, bytes.NewReader(pngBytes))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType for png as document, got %v", err)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	b := newTestBucket(16)

	big := append([]byte{}, pdfBytes...)
	big = append(big, bytes.Repeat([]byte("x"), 100)...)
	_, err := b.Upload(context.Background(), "documents", "big.pdf", KindDocument, bytes.NewReader(big))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	objs, _ := b.List(context.Background())
	if len(objs) != 0 {
		t.Errorf("partial object must be removed, found %d", len(objs))
	}
}

func TestUpload_Empty(t *testing.T) {
	b := newTestBucket(0)
	_, err := b.Upload(context.Background(), "documents", "empty.txt", KindDocument, strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestOpenListDelete(t *testing.T) {
	b := newTestBucket(0)
	ctx := context.Background()

	obj, err := b.Upload(ctx, "documents", "notes.txt", KindDocument, strings.NewReader("plain notes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	f, meta, err := b.Open(obj.Name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "plain notes" {
		t.Errorf("unexpected content %q", data)
	}
	if meta.Size != int64(len("plain notes")) {
		t.Errorf("unexpected size %d", meta.Size)
	}

	objs, err := b.List(ctx)
	if err != nil || len(objs) != 1 || objs[0].Name != obj.Name {
		t.Fatalf("List = %v, %v", objs, err)
	}

	if err := b.Delete(ctx, obj.Name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := b.Delete(ctx, obj.Name); err != nil {
		t.Errorf("deleting a missing object should succeed, got %v", err)
	}
	if _, _, err := b.Open(obj.Name); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	b := newTestBucket(0)
	if _, _, err := b.Open("../../etc/passwd"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestStore_ObjectFromURL(t *testing.T) {
	s := NewStoreWithOptions(afero.NewMemMapFs(), "http://cdn.test/storage", Options{})

	bucket, name, ok := s.ObjectFromURL("http://cdn.test/storage/events/images/1-a.png")
	if !ok || bucket != BucketEvents || name != "images/1-a.png" {
		t.Errorf("got %q %q %v", bucket, name, ok)
	}
	if _, _, ok := s.ObjectFromURL("https://elsewhere/x.png"); ok {
		t.Error("foreign url must not map")
	}
}
