package wizard

import "context"

// Status of a Wizard.
type Status int

const (
	Editing Status = iota
	Submitting
	Submitted
)

// Wizard glues a draft to its step cursor and tracks the submit outcome. It is not safe for
// concurrent use.
type Wizard[P any] struct {
	draft    Draft[P]
	cursor   Cursor
	status   Status
	lastErr  error
	recordID RecordID
}

// New starts a wizard on step 1 of d.
func New[P any](d Draft[P]) *Wizard[P] {
	return &Wizard[P]{draft: d, cursor: NewCursor(d.Steps())}
}

func (w *Wizard[P]) Draft() Draft[P] { return w.draft }
func (w *Wizard[P]) Step() int { return w.cursor.Step }
func (w *Wizard[P]) Status() Status { return w.status }
func (w *Wizard[P]) Err() error { return w.lastErr }
func (w *Wizard[P]) RecordID() RecordID { return w.recordID }

// CanNext reports whether the Next control is enabled.
func (w *Wizard[P]) CanNext() bool {
	return w.status == Editing && !w.cursor.AtLast() && w.draft.CanAdvance(w.cursor.Step)
}

// Next advances when the current step is complete.
func (w *Wizard[P]) Next() bool {
	if w.status != Editing {
		return false
	}
	return w.cursor.Next(w.draft.CanAdvance(w.cursor.Step))
}

// Previous goes back one step.
func (w *Wizard[P]) Previous() bool {
	if w.status != Editing {
		return false
	}
	return w.cursor.Previous()
}

// CanSubmit reports whether Submit may be attempted.
func (w *Wizard[P]) CanSubmit() bool {
	return w.status == Editing && w.cursor.AtLast() && w.draft.CanAdvance(w.cursor.Step)
}

// Submit runs the submission from the last step. On failure the wizard stays on the last step
// with the error kept in Err.
func (w *Wizard[P]) Submit(ctx context.Context, up Uploader, ins Inserter[P]) (RecordID, error) {
	switch {
	case w.status == Submitted:
		return w.recordID, ErrAlreadySubmitted
	case !w.cursor.AtLast():
		return "", ErrNotAtLastStep
	}

	w.status = Submitting
	id, err := Submit(ctx, w.draft, up, ins)
	if err != nil {
		w.status = Editing
		w.lastErr = err
		return "", err
	}
	w.status = Submitted
	w.lastErr = nil
	w.recordID = id
	return id, nil
}
