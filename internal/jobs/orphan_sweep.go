// Package jobs holds the background work the server schedules next to the HTTP listener.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/pkg/storage"
)

// ReferenceSource lists the public URLs records still point at. Soft-deleted rows count, they
// may be restored.
type ReferenceSource interface {
	MediaURLs(ctx context.Context) ([]string, error)
}

// SweepResult is the outcome of one sweep.
type SweepResult struct {
	Scanned  int
	Kept     int
	TooNew   int
	Deleted  int
	Failures int
}

// OrphanSweeper removes uploaded objects no record references. A submission uploads its files
// before it inserts the row, so a failed insert leaves blobs behind; the grace period keeps the
// sweep away from uploads whose insert may still be running.
type OrphanSweeper struct {
	store   *storage.Store
	sources []ReferenceSource
	grace   time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewOrphanSweeper creates an OrphanSweeper.
func NewOrphanSweeper(store *storage.Store, grace time.Duration, logger *zap.Logger, sources ...ReferenceSource) *OrphanSweeper {
	return &OrphanSweeper{
		store:   store,
		sources: sources,
		grace:   grace,
		now:     time.Now,
		logger:  logger,
	}
}

// Sweep runs one pass over every bucket. It stops at the first listing error and never deletes
// anything when the reference set could not be loaded.
func (s *OrphanSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	referenced, err := s.references(ctx)
	if err != nil {
		return res, err
	}

	cutoff := s.now().Add(-s.grace)
	for _, bucket := range s.store.Buckets() {
		objects, err := bucket.List(ctx)
		if err != nil {
			return res, fmt.Errorf("list bucket %s: %w", bucket.Name(), err)
		}
		for _, obj := range objects {
			res.Scanned++
			if referenced[bucket.Name()+"/"+obj.Name] {
				res.Kept++
				continue
			}
			if obj.ModTime.After(cutoff) {
				res.TooNew++
				continue
			}
			if err := bucket.Delete(ctx, obj.Name); err != nil {
				res.Failures++
				s.logger.Warn("delete orphaned object failed",
					zap.String("bucket", bucket.Name()),
					zap.String("object", obj.Name),
					zap.Error(err),
				)
				continue
			}
			res.Deleted++
			s.logger.Info("orphaned object deleted",
				zap.String("bucket", bucket.Name()),
				zap.String("object", obj.Name),
			)
		}
	}
	return res, nil
}

// references keys every referenced object as "<bucket>/<name>". URLs that do not belong to
// this store (external links) are ignored.
func (s *OrphanSweeper) references(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)
	for _, src := range s.sources {
		urls, err := src.MediaURLs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load media references: %w", err)
		}
		for _, u := range urls {
			if bucket, name, ok := s.store.ObjectFromURL(u); ok {
				refs[bucket+"/"+name] = true
			}
		}
	}
	return refs, nil
}
