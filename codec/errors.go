package codec

import (
	"errors"
	"fmt"
)

// ErrNotRegularFile is wrapped by the *InputError returned when a path names
// a directory, device or other non-regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// FormatError is returned when the version byte of a file names no known
// format revision.
type FormatError struct {
	Version int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported NBS version %d", e.Version)
}

// SizeLimitError is returned when a text field announces more bytes than
// MaxTextLength. The oversized text is never read.
type SizeLimitError struct {
	Length int
	Limit  int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("text length %d exceeds limit of %d bytes", e.Length, e.Limit)
}

// InputError reports a path that cannot be used, or a stream that ended or
// failed before a field could be transferred.
type InputError struct {
	Op     string // "open", "create", "read", "write" or "close"
	Path   string // Empty for caller-supplied streams.
	Offset int64  // Byte offset in the stream, -1 if no stream was touched.
	Err    error
}

func (e *InputError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at byte %d", e.Offset)
	}
	return msg + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }
