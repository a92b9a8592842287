//go:build linux
// +build linux

package inotify

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Watch identifies one path registration on an inotify descriptor. The
// kernel owns the value; the library only passes it through.
type Watch int32

// Mask is a bitfield of inotify event classes and watch behavior flags.
type Mask uint32

// Event classes. Usable both in AddWatch masks and as bits of Event.Mask.
const (
	InAccess       Mask = unix.IN_ACCESS
	InModify       Mask = unix.IN_MODIFY
	InAttrib       Mask = unix.IN_ATTRIB
	InCloseWrite   Mask = unix.IN_CLOSE_WRITE
	InCloseNowrite Mask = unix.IN_CLOSE_NOWRITE
	InOpen         Mask = unix.IN_OPEN
	InMovedFrom    Mask = unix.IN_MOVED_FROM
	InMovedTo      Mask = unix.IN_MOVED_TO
	InCreate       Mask = unix.IN_CREATE
	InDelete       Mask = unix.IN_DELETE
	InDeleteSelf   Mask = unix.IN_DELETE_SELF
	InMoveSelf     Mask = unix.IN_MOVE_SELF
)

// Convenience combinations of the above.
const (
	InClose     Mask = unix.IN_CLOSE
	InMove      Mask = unix.IN_MOVE
	InAllEvents Mask = unix.IN_ALL_EVENTS
)

// Bits only ever set by the kernel in Event.Mask.
const (
	InIsdir     Mask = unix.IN_ISDIR
	InUnmount   Mask = unix.IN_UNMOUNT
	InQOverflow Mask = unix.IN_Q_OVERFLOW
	InIgnored   Mask = unix.IN_IGNORED
)

// Watch behavior flags, only meaningful in AddWatch masks.
const (
	InDontFollow Mask = unix.IN_DONT_FOLLOW
	InExclUnlink Mask = unix.IN_EXCL_UNLINK
	InMaskAdd    Mask = unix.IN_MASK_ADD
	InOneshot    Mask = unix.IN_ONESHOT
	InOnlydir    Mask = unix.IN_ONLYDIR
)

var maskNames = []struct {
	bit  Mask
	name string
}{
	{InAccess, "access"},
	{InModify, "modify"},
	{InAttrib, "attrib"},
	{InCloseWrite, "close-write"},
	{InCloseNowrite, "close-nowrite"},
	{InOpen, "open"},
	{InMovedFrom, "moved-from"},
	{InMovedTo, "moved-to"},
	{InCreate, "create"},
	{InDelete, "delete"},
	{InDeleteSelf, "delete-self"},
	{InMoveSelf, "move-self"},
	{InIsdir, "isdir"},
	{InUnmount, "unmount"},
	{InQOverflow, "q-overflow"},
	{InIgnored, "ignored"},
}

// Has reports whether all bits of m2 are set in m.
func (m Mask) Has(m2 Mask) bool {
	return m&m2 == m2
}

func (m Mask) String() string {
	var names []string
	rest := m
	for _, mn := range maskNames {
		if m.Has(mn.bit) {
			names = append(names, mn.name)
			rest &^= mn.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Event is one decoded notification record. It is immutable once decoded;
// correlating Wd back to a path is the caller's business.
type Event struct {
	Wd     Watch
	Mask   Mask
	Cookie uint32
	Name   string // entry name relative to the watched path, may be empty
}

func (e Event) String() string {
	s := fmt.Sprintf("wd=%d mask=%s", e.Wd, e.Mask)
	if e.Cookie != 0 {
		s += fmt.Sprintf(" cookie=%d", e.Cookie)
	}
	if e.Name != "" {
		s += fmt.Sprintf(" name=%q", e.Name)
	}
	return s
}

func (e Event) IsAccess() bool {
	return e.Mask&InAccess != 0
}

func (e Event) IsModify() bool {
	return e.Mask&InModify != 0
}

func (e Event) IsAttrib() bool {
	return e.Mask&InAttrib != 0
}

func (e Event) IsCloseWrite() bool {
	return e.Mask&InCloseWrite != 0
}

func (e Event) IsCloseNowrite() bool {
	return e.Mask&InCloseNowrite != 0
}

// IsClose reports a close of either kind.
func (e Event) IsClose() bool {
	return e.Mask&InClose != 0
}

func (e Event) IsOpen() bool {
	return e.Mask&InOpen != 0
}

func (e Event) IsMovedFrom() bool {
	return e.Mask&InMovedFrom != 0
}

func (e Event) IsMovedTo() bool {
	return e.Mask&InMovedTo != 0
}

// IsMove reports a move in either direction.
func (e Event) IsMove() bool {
	return e.Mask&InMove != 0
}

func (e Event) IsCreate() bool {
	return e.Mask&InCreate != 0
}

func (e Event) IsDelete() bool {
	return e.Mask&InDelete != 0
}

func (e Event) IsDeleteSelf() bool {
	return e.Mask&InDeleteSelf != 0
}

func (e Event) IsMoveSelf() bool {
	return e.Mask&InMoveSelf != 0
}

func (e Event) IsDir() bool {
	return e.Mask&InIsdir != 0
}

func (e Event) IsUnmount() bool {
	return e.Mask&InUnmount != 0
}

func (e Event) IsQueueOverflow() bool {
	return e.Mask&InQOverflow != 0
}

// IsIgnored reports that the watch was removed, either explicitly or
// because the watched path went away.
func (e Event) IsIgnored() bool {
	return e.Mask&InIgnored != 0
}
