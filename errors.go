//go:build linux
// +build linux

package inotify

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrEndOfStream is returned when a read on the inotify descriptor reports
// end of stream (a zero-length read). The descriptor is no longer usable.
var ErrEndOfStream = errors.New("end of inotify event stream")

// InitError reports a failure to create the inotify descriptor or to put it
// into its resting non-blocking mode.
type InitError struct {
	Errno unix.Errno
}

func (e *InitError) Error() string {
	return "inotify init: " + e.Errno.Error()
}

func (e *InitError) Unwrap() error { return e.Errno }

// WatchError reports a rejected watch registration or removal.
type WatchError struct {
	Op    string // "add" or "rm"
	Path  string // only set for "add"
	Watch Watch  // only set for "rm"
	Errno unix.Errno
}

func (e *WatchError) Error() string {
	if e.Op == "add" {
		return fmt.Sprintf("inotify add watch %q: %s", e.Path, e.Errno)
	}
	return fmt.Sprintf("inotify rm watch %d: %s", e.Watch, e.Errno)
}

func (e *WatchError) Unwrap() error { return e.Errno }

// CloseError reports a failure to release the inotify descriptor.
type CloseError struct {
	Errno unix.Errno
}

func (e *CloseError) Error() string {
	return "inotify close: " + e.Errno.Error()
}

func (e *CloseError) Unwrap() error { return e.Errno }

// ReadError reports a read failure other than "would block", which is not an
// error, and end of stream, which is ErrEndOfStream.
type ReadError struct {
	Errno unix.Errno
}

func (e *ReadError) Error() string {
	return "inotify read: " + e.Errno.Error()
}

func (e *ReadError) Unwrap() error { return e.Errno }

// EncodingError reports a watch path that cannot be represented as a C
// string because it contains a NUL byte.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("inotify: path %q contains a NUL byte", e.Path)
}

// DecodeError reports a malformed event record in the bytes returned by a
// read: a truncated header, a name length overrunning the read, or a name
// that is not valid UTF-8.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("inotify: malformed event at offset %d: %s", e.Offset, e.Reason)
}

// errnoOf extracts the raw error number from a syscall failure.
func errnoOf(err error) unix.Errno {
	var errno unix.Errno
	errors.As(err, &errno)
	return errno
}
