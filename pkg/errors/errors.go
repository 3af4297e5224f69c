// Package errors holds sentinel errors shared by repositories and services.
package errors

import "errors"

var (
	// ErrOptimisticLock the record was changed by someone else since it was read.
	ErrOptimisticLock = errors.New("record was modified by another request, reload and retry")

	// ErrForbidden the caller is authenticated but may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")
)
