package storage

import (
	"github.com/spf13/afero"

	"campus-portal/backend/config"
)

// Bucket names and folders used by the services.
const (
	BucketResearch = "research"
	BucketEvents   = "events"

	FolderDocuments = "documents"
	FolderImages    = "images"
	FolderBrochures = "brochures"
)

// Store is the set of buckets the server exposes.
type Store struct {
	buckets map[string]*Bucket
}

// NewStore creates the buckets on fs.
func NewStore(fs afero.Fs, cfg *config.StorageConfig) *Store {
	opts := Options{
		MaxBytes:      cfg.MaxUploadMB << 20,
		DocumentTypes: cfg.DocumentTypes,
	}
	return NewStoreWithOptions(fs, cfg.PublicBaseURL, opts)
}

// NewStoreWithOptions is NewStore with explicit bucket options.
func NewStoreWithOptions(fs afero.Fs, publicBaseURL string, opts Options) *Store {
	s := &Store{buckets: make(map[string]*Bucket, 2)}
	for _, name := range []string{BucketResearch, BucketEvents} {
		s.buckets[name] = NewBucket(fs, name, publicBaseURL, opts)
	}
	return s
}

// NewDiskStore roots the buckets at cfg.RootDir on the local disk.
func NewDiskStore(cfg *config.StorageConfig) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, err
	}
	return NewStore(afero.NewBasePathFs(osFs, cfg.RootDir), cfg), nil
}

// Bucket returns the named bucket or nil.
func (s *Store) Bucket(name string) *Bucket {
	return s.buckets[name]
}

// Research is the research submissions bucket.
func (s *Store) Research() *Bucket { return s.buckets[BucketResearch] }

// Events is the events bucket.
func (s *Store) Events() *Bucket { return s.buckets[BucketEvents] }

// Buckets returns all buckets.
func (s *Store) Buckets() []*Bucket {
	return []*Bucket{s.buckets[BucketResearch], s.buckets[BucketEvents]}
}

// ObjectFromURL maps a public URL back to its bucket and object name.
func (s *Store) ObjectFromURL(url string) (bucket, name string, ok bool) {
	for _, b := range s.buckets {
		if name, ok := b.ObjectName(url); ok {
			return b.name, name, true
		}
	}
	return "", "", false
}
