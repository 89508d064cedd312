// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"errors"
	"io"
	"os"

	"github.com/sarchlab/v7sim/diag"
)

// ARM semihosting operation numbers, passed in r0.
const (
	SysOpen         uint32 = 0x01 // open(name, mode, len)
	SysClose        uint32 = 0x02 // close(handle)
	SysWriteC       uint32 = 0x03 // writec(&char)
	SysWrite0       uint32 = 0x04 // write0(string)
	SysWrite        uint32 = 0x05 // write(handle, buf, len)
	SysRead         uint32 = 0x06 // read(handle, buf, len)
	SysIsTTY        uint32 = 0x09 // istty(handle)
	SysSeek         uint32 = 0x0A // seek(handle, pos)
	SysFlen         uint32 = 0x0C // flen(handle)
	SysErrno        uint32 = 0x13 // errno()
	SysExit         uint32 = 0x18 // exit(reason)
	SysExitExtended uint32 = 0x20 // exit_extended(reason, code)
)

// ADPStoppedApplicationExit is the exit reason of a normal termination.
const ADPStoppedApplicationExit uint32 = 0x20026

// Error codes reported through SYS_ERRNO.
const (
	EBADF  = 9  // Bad file descriptor
	EIO    = 5  // I/O error
	EFAULT = 14 // Bad address
	ENOENT = 2  // No such file or directory
	ENOSYS = 38 // Function not implemented
)

// maxString bounds the strings read from guest memory.
const maxString = 4096

// transferChunk bounds the host buffer used by SYS_READ and SYS_WRITE.
const transferChunk = 64 * 1024

// SemihostResult represents the result of a semihosting call.
type SemihostResult struct {
	// Exited is true if the call terminated the program.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// GuestMemory is the view of guest virtual memory semihosting works on.
type GuestMemory interface {
	ReadVirtual(vaddr uint32, buf []byte) error
	WriteVirtual(vaddr uint32, data []byte) error
}

// SemihostHandler services ARM semihosting calls. The operation is in r0,
// r1 points to the parameter block and the result is returned in r0.
type SemihostHandler struct {
	regFile *RegFile
	memory  GuestMemory
	handles *HandleTable
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	sink    diag.Sink
	errno   uint32
}

// NewSemihostHandler creates a semihosting handler.
func NewSemihostHandler(
	regFile *RegFile,
	memory GuestMemory,
	stdin io.Reader,
	stdout, stderr io.Writer,
) *SemihostHandler {
	return &SemihostHandler{
		regFile: regFile,
		memory:  memory,
		handles: NewHandleTable(),
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		sink:    diag.Nop{},
	}
}

// SetDiagnostics sets the sink unknown operations are reported to.
func (h *SemihostHandler) SetDiagnostics(s diag.Sink) {
	h.sink = diag.OrNop(s)
}

// Handles returns the host handle table.
func (h *SemihostHandler) Handles() *HandleTable {
	return h.handles
}

// Handle executes the semihosting operation in r0.
func (h *SemihostHandler) Handle() SemihostResult {
	op := h.regFile.R[0]

	switch op {
	case SysOpen:
		h.handleOpen()
	case SysClose:
		h.handleClose()
	case SysWriteC:
		h.handleWriteC()
	case SysWrite0:
		h.handleWrite0()
	case SysWrite:
		h.handleWrite()
	case SysRead:
		h.handleRead()
	case SysIsTTY:
		h.handleIsTTY()
	case SysSeek:
		h.handleSeek()
	case SysFlen:
		h.handleFlen()
	case SysErrno:
		h.regFile.R[0] = h.errno
	case SysExit:
		return h.handleExit()
	case SysExitExtended:
		return h.handleExitExtended()
	default:
		h.sink.Logf("semihost", "unsupported operation 0x%02x", op)
		h.setError(ENOSYS)
	}

	return SemihostResult{}
}

// args reads n words of the parameter block at r1.
func (h *SemihostHandler) args(n int) ([]uint32, bool) {
	block := h.regFile.R[1]
	buf := make([]byte, 4*n)
	if err := h.memory.ReadVirtual(block, buf); err != nil {
		h.setError(EFAULT)
		return nil, false
	}

	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 |
			uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
	}
	return out, true
}

func (h *SemihostHandler) setError(errno uint32) {
	h.errno = errno
	h.regFile.R[0] = 0xFFFFFFFF
}

func (h *SemihostHandler) setHostError(err error) {
	switch {
	case errors.Is(err, os.ErrNotExist):
		h.setError(ENOENT)
	case errors.Is(err, os.ErrInvalid):
		h.setError(EBADF)
	default:
		h.setError(EIO)
	}
}

// openFlags maps the fopen mode index of SYS_OPEN to host flags.
func openFlags(mode uint32) int {
	switch mode / 2 {
	case 0:
		return os.O_RDONLY
	case 1:
		return os.O_RDWR
	case 2:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case 3:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case 4:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return os.O_RDWR | os.O_CREATE | os.O_APPEND
	}
}

func (h *SemihostHandler) handleOpen() {
	a, ok := h.args(3)
	if !ok {
		return
	}
	namePtr, mode, length := a[0], a[1], a[2]
	if mode > 11 || length > maxString {
		h.setError(EBADF)
		return
	}

	name := make([]byte, length)
	if err := h.memory.ReadVirtual(namePtr, name); err != nil {
		h.setError(EFAULT)
		return
	}

	if string(name) == ":tt" {
		switch {
		case mode < 4:
			h.regFile.R[0] = h.handles.Reopen(HandleStdin)
		case mode < 8:
			h.regFile.R[0] = h.handles.Reopen(HandleStdout)
		default:
			h.regFile.R[0] = h.handles.Reopen(HandleStderr)
		}
		return
	}

	handle, err := h.handles.Open(string(name), openFlags(mode), 0644)
	if err != nil {
		h.setHostError(err)
		return
	}
	h.regFile.R[0] = handle
}

func (h *SemihostHandler) handleClose() {
	a, ok := h.args(1)
	if !ok {
		return
	}
	if err := h.handles.Close(a[0]); err != nil {
		h.setHostError(err)
		return
	}
	h.regFile.R[0] = 0
}

func (h *SemihostHandler) handleWriteC() {
	var c [1]byte
	if err := h.memory.ReadVirtual(h.regFile.R[1], c[:]); err != nil {
		return
	}
	_, _ = h.stdout.Write(c[:])
}

func (h *SemihostHandler) handleWrite0() {
	addr := h.regFile.R[1]
	var out []byte
	for len(out) < maxString {
		var c [1]byte
		if err := h.memory.ReadVirtual(addr, c[:]); err != nil || c[0] == 0 {
			break
		}
		out = append(out, c[0])
		addr++
	}
	_, _ = h.stdout.Write(out)
}

// handleWrite returns the number of bytes not written in r0.
func (h *SemihostHandler) handleWrite() {
	a, ok := h.args(3)
	if !ok {
		return
	}
	handle, bufPtr, length := a[0], a[1], a[2]

	buf := make([]byte, min(length, transferChunk))
	var done uint32
	for done < length {
		chunk := buf[:min(length-done, transferChunk)]
		if err := h.memory.ReadVirtual(bufPtr+done, chunk); err != nil {
			h.errno = EFAULT
			break
		}

		n, err := h.writeHandle(handle, chunk)
		done += uint32(n)
		if err != nil {
			h.errno = EIO
			break
		}
		if n < len(chunk) {
			break
		}
	}
	h.regFile.R[0] = length - done
}

func (h *SemihostHandler) writeHandle(handle uint32, p []byte) (int, error) {
	switch {
	case handle == HandleStdout && h.handles.IsStream(handle):
		return h.stdout.Write(p)
	case handle == HandleStderr && h.handles.IsStream(handle):
		return h.stderr.Write(p)
	}
	return h.handles.Write(handle, p)
}

// handleRead returns the number of bytes not read in r0. A full count
// means end of file. A short read from the host ends the transfer.
func (h *SemihostHandler) handleRead() {
	a, ok := h.args(3)
	if !ok {
		return
	}
	handle, bufPtr, length := a[0], a[1], a[2]

	buf := make([]byte, min(length, transferChunk))
	var done uint32
	for done < length {
		chunk := buf[:min(length-done, transferChunk)]
		n, err := h.readHandle(handle, chunk)
		if err != nil && err != io.EOF {
			h.setHostError(err)
			return
		}

		if werr := h.memory.WriteVirtual(bufPtr+done, chunk[:n]); werr != nil {
			h.setError(EFAULT)
			return
		}
		done += uint32(n)
		if err == io.EOF || n < len(chunk) {
			break
		}
	}
	h.regFile.R[0] = length - done
}

func (h *SemihostHandler) readHandle(handle uint32, p []byte) (int, error) {
	if handle == HandleStdin && h.handles.IsStream(handle) {
		if h.stdin == nil {
			return 0, io.EOF
		}
		return h.stdin.Read(p)
	}
	return h.handles.Read(handle, p)
}

func (h *SemihostHandler) handleIsTTY() {
	a, ok := h.args(1)
	if !ok {
		return
	}
	if _, open := h.handles.Get(a[0]); !open {
		h.setError(EBADF)
		return
	}
	if h.handles.IsStream(a[0]) {
		h.regFile.R[0] = 1
	} else {
		h.regFile.R[0] = 0
	}
}

func (h *SemihostHandler) handleSeek() {
	a, ok := h.args(2)
	if !ok {
		return
	}
	if err := h.handles.Seek(a[0], int64(a[1])); err != nil {
		h.setHostError(err)
		return
	}
	h.regFile.R[0] = 0
}

func (h *SemihostHandler) handleFlen() {
	a, ok := h.args(1)
	if !ok {
		return
	}
	length, err := h.handles.Len(a[0])
	if err != nil {
		h.setHostError(err)
		return
	}
	h.regFile.R[0] = uint32(length)
}

// handleExit takes the reason code directly in r1.
func (h *SemihostHandler) handleExit() SemihostResult {
	h.handles.CloseAll()
	if h.regFile.R[1] == ADPStoppedApplicationExit {
		return SemihostResult{Exited: true, ExitCode: 0}
	}
	return SemihostResult{Exited: true, ExitCode: 1}
}

// handleExitExtended reads the reason and exit code from the block at r1.
func (h *SemihostHandler) handleExitExtended() SemihostResult {
	a, ok := h.args(2)
	h.handles.CloseAll()
	if !ok || a[0] != ADPStoppedApplicationExit {
		return SemihostResult{Exited: true, ExitCode: 1}
	}
	return SemihostResult{Exited: true, ExitCode: int64(int32(a[1]))}
}
