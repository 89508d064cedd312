// Package memory provides the physical memory the CPU core talks to.
//
// The core owns alignment and endianness policy. The bus only moves
// little-endian bytes at physical addresses.
package memory

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/v7sim/faults"
)

// Bus is the physical memory controller consumed by the CPU core.
type Bus interface {
	LoadByte(addr uint32) (uint8, error)
	LoadHalfword(addr uint32) (uint16, error)
	LoadWord(addr uint32) (uint32, error)
	StoreByte(addr uint32, value uint8) error
	StoreHalfword(addr uint32, value uint16) error
	StoreWord(addr uint32, value uint32) error

	// FetchWord reads an instruction word. Implementations must not emit
	// diagnostics for it.
	FetchWord(addr uint32) (uint32, error)
}

// RAM is a contiguous physical memory region backed by akita storage.
type RAM struct {
	storage *mem.Storage
	base    uint32
	size    uint64
}

// NewRAM creates a RAM region of size bytes starting at base.
func NewRAM(base uint32, size uint64) *RAM {
	return &RAM{
		storage: mem.NewStorage(size),
		base:    base,
		size:    size,
	}
}

// Base returns the first physical address of the region.
func (r *RAM) Base() uint32 {
	return r.base
}

// Size returns the region size in bytes.
func (r *RAM) Size() uint64 {
	return r.size
}

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *RAM) Contains(addr uint32, n uint64) bool {
	if addr < r.base {
		return false
	}
	return uint64(addr-r.base)+n <= r.size
}

func (r *RAM) read(addr uint32, n uint64) ([]byte, error) {
	if !r.Contains(addr, n) {
		return nil, faults.Memory(faults.ExternalAbort, faults.LevelNone, addr)
	}
	data, err := r.storage.Read(uint64(addr-r.base), n)
	if err != nil {
		return nil, faults.Memory(faults.ExternalAbort, faults.LevelNone, addr)
	}
	return data, nil
}

func (r *RAM) write(addr uint32, data []byte) error {
	if !r.Contains(addr, uint64(len(data))) {
		return faults.Memory(faults.ExternalAbort, faults.LevelNone, addr)
	}
	if err := r.storage.Write(uint64(addr-r.base), data); err != nil {
		return faults.Memory(faults.ExternalAbort, faults.LevelNone, addr)
	}
	return nil
}

// LoadByte reads one byte.
func (r *RAM) LoadByte(addr uint32) (uint8, error) {
	data, err := r.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// LoadHalfword reads a little-endian halfword.
func (r *RAM) LoadHalfword(addr uint32) (uint16, error) {
	data, err := r.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// LoadWord reads a little-endian word.
func (r *RAM) LoadWord(addr uint32) (uint32, error) {
	data, err := r.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// FetchWord reads an instruction word.
func (r *RAM) FetchWord(addr uint32) (uint32, error) {
	return r.LoadWord(addr)
}

// StoreByte writes one byte.
func (r *RAM) StoreByte(addr uint32, value uint8) error {
	return r.write(addr, []byte{value})
}

// StoreHalfword writes a little-endian halfword.
func (r *RAM) StoreHalfword(addr uint32, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	return r.write(addr, buf[:])
}

// StoreWord writes a little-endian word.
func (r *RAM) StoreWord(addr uint32, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return r.write(addr, buf[:])
}

// LoadImage copies data into the region starting at addr.
func (r *RAM) LoadImage(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return r.write(addr, data)
}

// Zero clears n bytes starting at addr.
func (r *RAM) Zero(addr uint32, n uint64) error {
	if n == 0 {
		return nil
	}
	return r.write(addr, make([]byte, n))
}
