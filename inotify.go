//go:build linux
// +build linux

// Package inotify is a thin wrapper around the Linux inotify facility. It
// owns one notification descriptor and decodes its raw event stream into
// Event values, nothing more: no directory tree walking, no event
// deduplication, no path bookkeeping.
//
// The descriptor rests in non-blocking mode so that PollEvents never blocks
// the caller; WaitForEvents temporarily flips it to blocking for the
// duration of one read. An Inotify is meant for a single logical owner at a
// time, there is no internal locking.
package inotify

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/sys/unix"

	"git.sr.ht/~rjarry/go-inotify/lib/log"
)

// readBufSize is the capacity handed to each read of the descriptor. Large
// enough to typically hold several records; not a protocol limit. The
// kernel only ever delivers whole records, so an event whose name does not
// fit in this capacity would fail the read with EINVAL rather than arrive
// truncated.
const readBufSize = 1024

// Inotify is one open inotify descriptor.
type Inotify struct {
	fd  int
	buf []byte
}

// Init creates an inotify descriptor with no extra creation flags.
func Init() (*Inotify, error) {
	return InitWithFlags(0)
}

// InitWithFlags creates an inotify descriptor with the given inotify_init1
// flags (e.g. unix.IN_CLOEXEC) and puts it into non-blocking mode, its
// resting state.
func InitWithFlags(flags int) (*Inotify, error) {
	fd, err := unix.InotifyInit1(flags)
	if err != nil {
		return nil, &InitError{Errno: errnoOf(err)}
	}
	in := &Inotify{
		fd:  fd,
		buf: make([]byte, readBufSize),
	}
	if err := in.setBlocking(false); err != nil {
		unix.Close(fd) //nolint:errcheck // already failing, nothing left to report
		return nil, &InitError{Errno: errnoOf(err)}
	}
	log.Tracef("inotify: initialized descriptor %d", fd)
	return in, nil
}

// Fd exposes the raw descriptor so that callers can layer their own
// readiness check (poll, epoll, select) before WaitForEvents. The
// descriptor is still owned by the Inotify; do not read from or close it.
func (in *Inotify) Fd() int {
	return in.fd
}

// AddWatch registers interest in path for the event classes in mask and
// returns the kernel's watch descriptor for it.
func (in *Inotify) AddWatch(path string, mask Mask) (Watch, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return 0, &EncodingError{Path: path}
	}
	wd, err := unix.InotifyAddWatch(in.fd, path, uint32(mask))
	if err != nil {
		return 0, &WatchError{Op: "add", Path: path, Errno: errnoOf(err)}
	}
	log.Tracef("inotify: watching %q (wd=%d mask=%s)", path, wd, mask)
	return Watch(wd), nil
}

// RmWatch drops the registration behind watch. The kernel rejects a watch
// that is stale or was never valid.
func (in *Inotify) RmWatch(watch Watch) error {
	ret, err := unix.InotifyRmWatch(in.fd, uint32(watch))
	if err != nil {
		return &WatchError{Op: "rm", Watch: watch, Errno: errnoOf(err)}
	}
	if ret != 0 {
		// The syscall contract allows no outcome besides success and
		// rejection. Anything else means the binding is broken.
		panic(fmt.Sprintf("unexpected return code %d from inotify_rm_watch", ret))
	}
	log.Tracef("inotify: removed watch %d", watch)
	return nil
}

// Close releases the descriptor. The Inotify must not be used afterwards,
// whether Close succeeded or not; the descriptor is released exactly once.
func (in *Inotify) Close() error {
	if err := unix.Close(in.fd); err != nil {
		return &CloseError{Errno: errnoOf(err)}
	}
	log.Tracef("inotify: closed descriptor %d", in.fd)
	return nil
}

// PollEvents returns the events currently pending on the descriptor without
// blocking. No pending events is not an error: the result is simply empty.
// A zero-length read means the descriptor is dead and surfaces as
// ErrEndOfStream.
func (in *Inotify) PollEvents() ([]Event, error) {
	return in.readEvents()
}

// WaitForEvents blocks until at least one event is available, then returns
// the pending events. The descriptor is switched to blocking mode for the
// duration of the read and restored to non-blocking on every exit path.
// There is no timeout and no cancellation; see Fd for layering a readiness
// check on top.
func (in *Inotify) WaitForEvents() ([]Event, error) {
	if err := in.setBlocking(true); err != nil {
		return nil, &ReadError{Errno: errnoOf(err)}
	}
	defer func() {
		if err := in.setBlocking(false); err != nil {
			log.Errorf("inotify: restoring non-blocking mode on %d: %v", in.fd, err)
		}
	}()
	return in.readEvents()
}

// readEvents drains the descriptor with a single read and decodes the
// result. Shared by PollEvents and WaitForEvents; only the descriptor's
// blocking mode differs between the two.
func (in *Inotify) readEvents() ([]Event, error) {
	n, err := unix.Read(in.fd, in.buf)
	switch {
	case err == unix.EAGAIN:
		// EWOULDBLOCK is the same value on Linux. Nothing pending is the
		// steady state of the poll path, not a failure.
		return nil, nil
	case err != nil:
		return nil, &ReadError{Errno: errnoOf(err)}
	case n == 0:
		return nil, ErrEndOfStream
	}
	events, err := parseEvents(in.buf[:n])
	if err != nil {
		return nil, err
	}
	log.Debugf("inotify: decoded %d events from descriptor %d", len(events), in.fd)
	return events, nil
}

// parseEvents walks a buffer containing the bytes of exactly one read,
// decoding back-to-back records until the cursor lands on the buffer end.
// The kernel never splits a record across reads, so a record overrunning
// the buffer is malformed input, not a resumable condition.
func parseEvents(buf []byte) ([]Event, error) {
	events := make([]Event, 0, len(buf)/unix.SizeofInotifyEvent)
	offset := 0
	for offset < len(buf) {
		if len(buf)-offset < unix.SizeofInotifyEvent {
			return nil, &DecodeError{Offset: offset, Reason: "truncated event header"}
		}
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(raw.Len)
		if len(buf)-offset-unix.SizeofInotifyEvent < nameLen {
			return nil, &DecodeError{Offset: offset, Reason: "name overruns buffer"}
		}
		var name string
		if nameLen > 0 {
			field := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+nameLen]
			// The name field is padded with NULs up to Len; the logical
			// name stops at the first one.
			if i := bytes.IndexByte(field, 0); i >= 0 {
				field = field[:i]
			}
			if !utf8.Valid(field) {
				return nil, &DecodeError{
					Offset: offset,
					Reason: fmt.Sprintf("name %q is not valid UTF-8", field),
				}
			}
			name = string(field)
		}
		events = append(events, Event{
			Wd:     Watch(raw.Wd),
			Mask:   Mask(raw.Mask),
			Cookie: raw.Cookie,
			Name:   name,
		})
		offset += unix.SizeofInotifyEvent + nameLen
	}
	return events, nil
}

// setBlocking flips only the O_NONBLOCK bit of the descriptor's attribute
// flags. This read-modify-write is not atomic against another actor using
// the same descriptor; an Inotify is meant to have a single owner.
func (in *Inotify) setBlocking(block bool) error {
	return unix.SetNonblock(in.fd, !block)
}
