package dirstat

import (
	"errors"
	"io/fs"
)

// ErrorCode classifies a soft failure encountered while walking a tree.
// Codes are strings so they serialize naturally to JSON.
type ErrorCode string

const (
	// CodePermissionDenied indicates the entry could not be accessed due to permissions.
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// CodeNotFound indicates the entry vanished between listing and access.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnreadable indicates any other listing or metadata failure.
	CodeUnreadable ErrorCode = "UNREADABLE"
)

// ClassifyError maps a filesystem error to an ErrorCode.
func ClassifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return CodePermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	default:
		return CodeUnreadable
	}
}
