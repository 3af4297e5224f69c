// Package storage keeps uploaded files in named buckets on an afero filesystem and hands out
// public URLs for them.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrTooLarge        = errors.New("file exceeds upload limit")
	ErrEmptyFile       = errors.New("file is empty")
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidName     = errors.New("invalid object name")
)

// Kind selects the allow list an upload is checked against.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// Object describes a stored file.
type Object struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModTime     time.Time `json:"mod_time"`
}

// Options tune a bucket.
type Options struct {
	MaxBytes      int64
	DocumentTypes []string
	// Now and Random exist for tests.
	Now    func() time.Time
	Random func() string
}

// Bucket is a folder of objects under the storage root.
type Bucket struct {
	name          string
	fs            afero.Fs
	publicBaseURL string
	maxBytes      int64
	documentTypes map[string]bool
	now           func() time.Time
	random        func() string
}

// NewBucket creates the bucket rooted at <fs>/<name>.
func NewBucket(fs afero.Fs, name, publicBaseURL string, opts Options) *Bucket {
	docs := make(map[string]bool, len(opts.DocumentTypes))
	for _, t := range opts.DocumentTypes {
		docs[strings.ToLower(strings.TrimSpace(t))] = true
	}
	b := &Bucket{
		name:          name,
		fs:            afero.NewBasePathFs(fs, "/"+name),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      opts.MaxBytes,
		documentTypes: docs,
		now:           opts.Now,
		random:        opts.Random,
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.random == nil {
		b.random = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] }
	}
	return b
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Upload stores r below folder as "<folder>/<unix-millis>-<random>.<ext>". The extension comes
// from filename, falling back to the detected type.
func (b *Bucket) Upload(ctx context.Context, folder, filename string, kind Kind, r io.Reader) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmptyFile
	}

	mt := mimetype.Detect(head)
	if !b.allowed(kind, mt) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mt.Extension()
	}
	name := path.Join(cleanFolder(folder), fmt.Sprintf("%d-%s%s", b.now().UnixMilli(), b.random(), ext))

	if err := b.fs.MkdirAll(path.Dir("/"+name), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	if b.maxBytes > 0 {
		body = &limitedReader{r: body, remaining: b.maxBytes}
	}
	if err := afero.WriteReader(b.fs, "/"+name, body); err != nil {
		_ = b.fs.Remove("/" + name)
		if errors.Is(err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("write object: %w", err)
	}

	info, err := b.fs.Stat("/" + name)
	if err != nil {
		return nil, fmt.Errorf("stat object: %w", err)
	}

	return &Object{
		Bucket:      b.name,
		Name:        name,
		URL:         b.PublicURL(name),
		Size:        info.Size(),
		ContentType: baseType(mt.String()),
		ModTime:     info.ModTime(),
	}, nil
}

// Open returns a reader for the object and its metadata.
func (b *Bucket) Open(name string) (afero.File, *Object, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := b.fs.Open("/" + clean)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, nil, ErrObjectNotFound
	}
	return f, &Object{
		Bucket:  b.name,
		Name:    clean,
		URL:     b.PublicURL(clean),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (b *Bucket) Delete(_ context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := b.fs.Remove("/" + clean); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns every object in the bucket ordered by name.
func (b *Bucket) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	err := afero.Walk(b.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		name := strings.TrimPrefix(filepath.ToSlash(p), "/")
		objects = append(objects, Object{
			Bucket:  b.name,
			Name:    name,
			URL:     b.PublicURL(name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// PublicURL is the URL clients fetch name from.
func (b *Bucket) PublicURL(name string) string {
	return b.publicBaseURL + "/" + b.name + "/" + name
}

// ObjectName maps a URL issued by PublicURL back to the object name.
func (b *Bucket) ObjectName(url string) (string, bool) {
	prefix := b.publicBaseURL + "/" + b.name + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (b *Bucket) allowed(kind Kind, mt *mimetype.MIME) bool {
	switch kind {
	case KindImage:
		return strings.HasPrefix(mt.String(), "image/")
	case KindDocument:
		// walk parents so e.g. a docx detected as its own type still matches
		for m := mt; m != nil; m = m.Parent() {
			if b.documentTypes[baseType(m.String())] {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func baseType(t string) string {
	if i := strings.Index(t, ";"); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

func cleanFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" || folder == "." {
		return "misc"
	}
	return folder
}

func cleanName(name string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" || clean == "." || strings.Contains(clean, "..") {
		return "", ErrInvalidName
	}
	return clean, nil
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
