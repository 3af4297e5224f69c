package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/wizard"
	"campus-portal/backend/pkg/storage"
)

// bucketUploader stores wizard files in one bucket.
type bucketUploader struct {
	bucket *storage.Bucket
}

func (u bucketUploader) Upload(ctx context.Context, stage wizard.Stage, f wizard.File) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("file %q has no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer rc.Close()

	obj, err := u.bucket.Upload(ctx, stage.Folder, f.Name, storage.Kind(stage.Kind), rc)
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

// logSubmissionFailure records the objects a failed submit left behind for the orphan sweep.
func logSubmissionFailure(logger *zap.Logger, kind string, err error) {
	var se *wizard.SubmissionError
	if !errors.As(err, &se) {
		return
	}
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("stage", se.Stage),
		zap.Int("index", se.Index),
		zap.Strings("orphaned_urls", se.URLs),
		zap.Error(se.Err),
	}
	if isUploadRejection(se.Err) {
		logger.Warn("submission rejected", fields...)
		return
	}
	logger.Error("submission failed", fields...)
}

func isUploadRejection(err error) bool {
	return errors.Is(err, storage.ErrUnsupportedType) ||
		errors.Is(err, storage.ErrTooLarge) ||
		errors.Is(err, storage.ErrEmptyFile)
}

// removeObjects deletes the bucket objects behind urls, best effort.
func removeObjects(ctx context.Context, bucket *storage.Bucket, urls []string, logger *zap.Logger) {
	for _, u := range urls {
		name, ok := bucket.ObjectName(u)
		if !ok {
			continue
		}
		if err := bucket.Delete(ctx, name); err != nil {
			logger.Warn("delete object failed", zap.String("bucket", bucket.Name()), zap.String("name", name), zap.Error(err))
		}
	}
}

// fieldErrors turns a typed JSON parse failure into a ValidationError.
func fieldErrors(err error) error {
	var fe dto.FieldErrors
	if errors.As(err, &fe) {
		return &ValidationError{Fields: fe}
	}
	return err
}
