//go:build linux
// +build linux

package inotify

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// appendRecord appends one wire-format record to buf. The name is written
// verbatim: callers provide the NUL padding themselves, as the kernel does.
func appendRecord(buf []byte, wd int32, mask Mask, cookie uint32, name []byte) []byte {
	raw := unix.InotifyEvent{
		Wd:     wd,
		Mask:   uint32(mask),
		Cookie: cookie,
		Len:    uint32(len(name)),
	}
	hdr := (*[unix.SizeofInotifyEvent]byte)(unsafe.Pointer(&raw))
	buf = append(buf, hdr[:]...)
	return append(buf, name...)
}

func padded(name string, length int) []byte {
	field := make([]byte, length)
	copy(field, name)
	return field
}

func TestParseSingleRecord(t *testing.T) {
	assert := assert.New(t)

	buf := appendRecord(nil, 3, InCreate, 0, padded("a.txt", 8))

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(Event{Wd: 3, Mask: InCreate, Cookie: 0, Name: "a.txt"}, events[0])
	assert.True(events[0].IsCreate())
	assert.False(events[0].IsAccess())
	assert.False(events[0].IsDelete())
	assert.False(events[0].IsMove())
	assert.False(events[0].IsClose())
	assert.False(events[0].IsDir())
}

func TestParseBackToBackRecords(t *testing.T) {
	assert := assert.New(t)

	buf := appendRecord(nil, 1, InDeleteSelf, 0, nil)
	assert.Len(buf, unix.SizeofInotifyEvent)
	buf = appendRecord(buf, 2, InCreate, 0, padded("b", 4))
	assert.Len(buf, 2*unix.SizeofInotifyEvent+4)

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal("", events[0].Name)
	assert.Equal(Watch(1), events[0].Wd)
	assert.Equal("b", events[1].Name)
	assert.Equal(Watch(2), events[1].Wd)
}

func TestParseManyRecords(t *testing.T) {
	assert := assert.New(t)

	names := []string{"", "a", "some-longer-name.txt", "", "b.c", "ñ", "dir"}
	var buf []byte
	for i, name := range names {
		length := 0
		if name != "" {
			// room for the terminator plus uneven padding
			length = len(name) + 1 + i%4
		}
		buf = appendRecord(buf, int32(i), InModify, 0, padded(name, length))
	}

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, len(names))
	for i, name := range names {
		assert.Equal(Watch(i), events[i].Wd)
		assert.Equal(name, events[i].Name)
	}
}

func TestParseEmptyBuffer(t *testing.T) {
	events, err := parseEvents(nil)
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseNameTruncatedAtNul(t *testing.T) {
	buf := appendRecord(nil, 1, InCreate, 0, []byte("abc\x00def\x00"))

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "abc", events[0].Name)
}

func TestParseNameWithoutNul(t *testing.T) {
	// the kernel always NUL-terminates, but the format does not require it
	buf := appendRecord(nil, 1, InCreate, 0, []byte("full"))

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "full", events[0].Name)
}

func TestParseOverflowRecord(t *testing.T) {
	buf := appendRecord(nil, -1, InQOverflow, 0, nil)

	events, err := parseEvents(buf)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Watch(-1), events[0].Wd)
	assert.True(t, events[0].IsQueueOverflow())
}

func TestParseRoundTrip(t *testing.T) {
	records := []struct {
		wd      int32
		mask    Mask
		cookie  uint32
		name    string
		nameLen int
	}{
		{1, InCreate, 0, "a.txt", 8},
		{1, InMovedFrom, 42, "a.txt", 8},
		{1, InMovedTo, 42, "b.txt", 8},
		{2, InDeleteSelf, 0, "", 0},
		{3, InModify | InIsdir, 0, "subdir", 12},
	}

	var orig []byte
	for _, r := range records {
		orig = appendRecord(orig, r.wd, r.mask, r.cookie, padded(r.name, r.nameLen))
	}

	events, err := parseEvents(orig)
	require.NoError(t, err)
	require.Len(t, events, len(records))

	var again []byte
	for i, ev := range events {
		again = appendRecord(again, int32(ev.Wd), ev.Mask, ev.Cookie,
			padded(ev.Name, records[i].nameLen))
	}
	assert.Equal(t, orig, again)
}

func TestParseTruncatedHeader(t *testing.T) {
	buf := appendRecord(nil, 1, InCreate, 0, nil)

	_, err := parseEvents(buf[:10])
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 0, decodeErr.Offset)
}

func TestParseNameOverrunsBuffer(t *testing.T) {
	buf := appendRecord(nil, 1, InCreate, 0, padded("a", 64))

	_, err := parseEvents(buf[:unix.SizeofInotifyEvent+4])
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestParseInvalidUTF8Name(t *testing.T) {
	buf := appendRecord(nil, 1, InCreate, 0, []byte{0xff, 0xfe, 0xfd, 0x00})

	_, err := parseEvents(buf)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}
