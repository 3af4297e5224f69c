package wizard

import (
	"context"
	"fmt"
)

// RecordID identifies an inserted record.
type RecordID string

// Uploader stores one file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, stage Stage, f File) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, stage Stage, f File) (string, error)

func (fn UploaderFunc) Upload(ctx context.Context, stage Stage, f File) (string, error) {
	return fn(ctx, stage, f)
}

// Inserter persists the assembled payload.
type Inserter[P any] interface {
	Insert(ctx context.Context, payload P) (RecordID, error)
}

// InserterFunc adapts a function to Inserter.
type InserterFunc[P any] func(ctx context.Context, payload P) (RecordID, error)

func (fn InserterFunc[P]) Insert(ctx context.Context, payload P) (RecordID, error) {
	return fn(ctx, payload)
}

// StageInsert is the SubmissionError stage of a failed insert.
const StageInsert = "insert"

// SubmissionError carries where a submit stopped. Files uploaded before the failure stay in
// storage; URLs lists them.
type SubmissionError struct {
	Stage string
	Index int
	File  string
	URLs  []string
	Err   error
}

func (e *SubmissionError) Error() string {
	if e.Stage == StageInsert {
		return fmt.Sprintf("insert record: %v", e.Err)
	}
	return fmt.Sprintf("upload %s #%d (%s): %v", e.Stage, e.Index+1, e.File, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UploadStages uploads every stage's files one at a time in order and returns the URLs by stage
// name plus all of them in upload order. It stops at the first error or cancellation with a
// *SubmissionError.
func UploadStages(ctx context.Context, up Uploader, stages []Stage) (map[string][]string, []string, error) {
	urls := make(map[string][]string)
	var uploaded []string
	for _, stage := range stages {
		for i, f := range stage.Files {
			if err := ctx.Err(); err != nil {
				return nil, uploaded, &SubmissionError{Stage: stage.Name, Index: i, File: f.Name, URLs: uploaded, Err: err}
			}
			u, err := up.Upload(ctx, stage, f)
			if err != nil {
				return nil, uploaded, &SubmissionError{Stage: stage.Name, Index: i, File: f.Name, URLs: uploaded, Err: err}
			}
			urls[stage.Name] = append(urls[stage.Name], u)
			uploaded = append(uploaded, u)
		}
	}
	return urls, uploaded, nil
}

// Submit uploads every stage's files one at a time in order, builds the payload with the
// collected URLs and inserts it. The first error stops the submission. Nothing uploaded
// before a failure is removed.
func Submit[P any](ctx context.Context, d Draft[P], up Uploader, ins Inserter[P]) (RecordID, error) {
	if step := FirstIncomplete(d); step != 0 {
		e := &IncompleteError{Step: step}
		if t, ok := any(d).(interface{ StepTitle(int) string }); ok {
			e.Title = t.StepTitle(step)
		}
		return "", e
	}

	urls, uploaded, err := UploadStages(ctx, up, d.Stages())
	if err != nil {
		return "", err
	}

	payload, err := d.Payload(urls)
	if err != nil {
		return "", &SubmissionError{Stage: StageInsert, URLs: uploaded, Err: err}
	}
	id, err := ins.Insert(ctx, payload)
	if err != nil {
		return "", &SubmissionError{Stage: StageInsert, URLs: uploaded, Err: err}
	}
	return id, nil
}
