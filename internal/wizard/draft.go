// Package wizard implements the multi-step submission drafts: per-step readiness predicates,
// repeatable entry groups kept as parallel arrays, and the upload-then-insert submit.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"campus-portal/backend/pkg/validation"
)

var (
	ErrLastEntry        = errors.New("at least one entry must remain")
	ErrIndexOutOfRange  = errors.New("entry index out of range")
	ErrUnknownGroup     = errors.New("unknown repeatable group")
	ErrNotAtLastStep    = errors.New("submit is only available on the last step")
	ErrAlreadySubmitted = errors.New("draft already submitted")
)

// Group names a repeatable entry group.
type Group string

const (
	GroupContributors Group = "contributors"
	GroupTools        Group = "tools"
	GroupLinks        Group = "links"
	GroupAgenda       Group = "agenda"
)

// File is a pending upload. Open is called once, when the file's turn comes.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Stage is one ordered batch of uploads.
type Stage struct {
	Name   string
	Folder string
	Kind   string
	Files  []File
}

// Draft is the contract Submit drives. P is the record payload handed to the inserter.
type Draft[P any] interface {
	Steps() int
	CanAdvance(step int) bool
	Stages() []Stage
	Payload(urls map[string][]string) (P, error)
}

// IncompleteError reports the first step whose required fields are not filled.
type IncompleteError struct {
	Step  int
	Title string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("step %d (%s) is incomplete", e.Step, e.Title)
}

// FirstIncomplete returns the first step of d that cannot advance, or 0 when all pass.
func FirstIncomplete[P any](d Draft[P]) int {
	for step := 1; step <= d.Steps(); step++ {
		if !d.CanAdvance(step) {
			return step
		}
	}
	return 0
}

var validate = validator.New()

func blank(s string) bool { return validation.IsBlank(s) }

func anyFilled(values []string) bool {
	for _, v := range values {
		if !blank(v) {
			return true
		}
	}
	return false
}

func validEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

func validURL(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,url") == nil
}

func addEntry(cols ...*[]string) {
	for _, c := range cols {
		*c = append(*c, "")
	}
}

func removeEntry(index int, cols ...*[]string) error {
	n := len(*cols[0])
	if index < 0 || index >= n {
		return ErrIndexOutOfRange
	}
	if n <= 1 {
		return ErrLastEntry
	}
	for _, c := range cols {
		*c = slices.Delete(*c, index, index+1)
	}
	return nil
}

// equalize pads every column to the longest one and guarantees at least one slot.
func equalize(cols ...*[]string) {
	n := 1
	for _, c := range cols {
		n = max(n, len(*c))
	}
	for _, c := range cols {
		for len(*c) < n {
			*c = append(*c, "")
		}
	}
}

func at(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !blank(v) {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func indexed(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
