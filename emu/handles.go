// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"io"
	"os"
	"sync"
)

// Handles of the standard streams. Semihosting opens them as ":tt".
const (
	HandleStdin  uint32 = 0
	HandleStdout uint32 = 1
	HandleStderr uint32 = 2
)

// Handle represents an open semihosting file handle.
type Handle struct {
	HostFile *os.File // Host file handle (nil for the standard streams)
	Path     string   // Host path, or the stream name
	Flags    int      // Open flags
	IsOpen   bool     // Whether the handle is currently open
}

// HandleTable manages the host files opened through semihosting.
type HandleTable struct {
	handles map[uint32]*Handle
	next    uint32
	mu      sync.Mutex
}

// NewHandleTable creates a handle table with the standard streams open.
func NewHandleTable() *HandleTable {
	t := &HandleTable{
		handles: make(map[uint32]*Handle),
		next:    3, // Start allocating after the standard streams
	}

	t.handles[HandleStdin] = &Handle{Path: "stdin", IsOpen: true}
	t.handles[HandleStdout] = &Handle{Path: "stdout", IsOpen: true}
	t.handles[HandleStderr] = &Handle{Path: "stderr", IsOpen: true}

	return t
}

// Open opens a host file and returns a new handle.
func (t *HandleTable) Open(path string, flags int, mode os.FileMode) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}

	h := t.next
	t.next++

	t.handles[h] = &Handle{
		HostFile: hostFile,
		Path:     path,
		Flags:    flags,
		IsOpen:   true,
	}

	return h, nil
}

// Reopen marks a standard stream open again and returns its handle.
func (t *HandleTable) Reopen(h uint32) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.handles[h]; ok {
		entry.IsOpen = true
	}
	return h
}

// Close closes a handle.
func (t *HandleTable) Close(h uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.handles[h]
	if !exists || !entry.IsOpen {
		return os.ErrInvalid
	}

	// The standard streams are only marked closed
	if h <= HandleStderr {
		entry.IsOpen = false
		return nil
	}

	if entry.HostFile != nil {
		if err := entry.HostFile.Close(); err != nil {
			return err
		}
	}

	entry.HostFile = nil
	entry.IsOpen = false

	return nil
}

// Get returns the handle entry if it exists and is open.
func (t *HandleTable) Get(h uint32) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.handles[h]
	if !exists || !entry.IsOpen {
		return nil, false
	}

	return entry, true
}

// IsStream reports whether h is an open standard stream.
func (t *HandleTable) IsStream(h uint32) bool {
	_, ok := t.Get(h)
	return ok && h <= HandleStderr
}

func (t *HandleTable) hostFile(h uint32) (*os.File, error) {
	entry, ok := t.Get(h)
	if !ok || entry.HostFile == nil {
		return nil, os.ErrInvalid
	}
	return entry.HostFile, nil
}

// Read reads from a host file. The standard streams are served by the
// semihosting handler.
func (t *HandleTable) Read(h uint32, buf []byte) (int, error) {
	f, err := t.hostFile(h)
	if err != nil {
		return 0, err
	}
	return f.Read(buf)
}

// Write writes to a host file.
func (t *HandleTable) Write(h uint32, buf []byte) (int, error) {
	f, err := t.hostFile(h)
	if err != nil {
		return 0, err
	}
	return f.Write(buf)
}

// Seek moves to an absolute position in a host file.
func (t *HandleTable) Seek(h uint32, pos int64) error {
	f, err := t.hostFile(h)
	if err != nil {
		return err
	}
	_, err = f.Seek(pos, io.SeekStart)
	return err
}

// Len returns the length of a host file.
func (t *HandleTable) Len(h uint32) (int64, error) {
	f, err := t.hostFile(h)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CloseAll closes every host file.
func (t *HandleTable) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for h, entry := range t.handles {
		if h > HandleStderr && entry.HostFile != nil {
			_ = entry.HostFile.Close()
			entry.HostFile = nil
			entry.IsOpen = false
		}
	}
}
