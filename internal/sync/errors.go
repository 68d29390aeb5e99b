package sync

import (
	"errors"
	"fmt"
)

// ErrorCode classifies run failures. Codes are strings so they read well in
// logs and result files.
type ErrorCode string

const (
	// CodeSourceNotFound indicates the source root does not exist.
	CodeSourceNotFound ErrorCode = "SOURCE_NOT_FOUND"
	// CodeSourceNotDirectory indicates the source root is not a directory.
	CodeSourceNotDirectory ErrorCode = "SOURCE_NOT_DIRECTORY"
	// CodeTargetUnavailable indicates the target root is not a directory or
	// cannot be created.
	CodeTargetUnavailable ErrorCode = "TARGET_UNAVAILABLE"
	// CodeConfigParse indicates a local configuration file could not be read.
	CodeConfigParse ErrorCode = "CONFIG_PARSE_ERROR"
	// CodeConfigVersion indicates a local configuration file declares an
	// unsupported format version.
	CodeConfigVersion ErrorCode = "CONFIG_VERSION_INCOMPATIBLE"
	// CodeFilesystem indicates a status check, copy or delete failed.
	CodeFilesystem ErrorCode = "FILESYSTEM_ERROR"
	// CodeIncompatibleEntries indicates the same name is a file on one side
	// and a directory on the other.
	CodeIncompatibleEntries ErrorCode = "INCOMPATIBLE_ENTRIES"
)

var (
	// ErrIncompatibleEntries is wrapped by CodeIncompatibleEntries errors.
	ErrIncompatibleEntries = errors.New("incompatible entry types")
	// ErrNotDirectory is wrapped when a root path is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Error is a categorized synchronization failure.
type Error struct {
	Code ErrorCode
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, path string, err error) *Error {
	return &Error{Code: code, Path: path, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or the empty
// code.
func CodeOf(err error) ErrorCode {
	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr.Code
	}
	return ""
}
