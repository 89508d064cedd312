// Package cp15 implements the ARMv7-A system control coprocessor.
//
// Registers live in a sparse map keyed by the MCR/MRC operands. Writes to
// registers that configure the memory system are forwarded to the MMU,
// and instruction-cache maintenance is forwarded to an optional
// invalidator.
package cp15

import (
	"fmt"
	"sort"

	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/mmu"
)

// ICacheInvalidator is notified of instruction-cache and branch-predictor
// maintenance operations.
type ICacheInvalidator interface {
	InvalidateAll()
}

type register struct {
	regDef
	value uint32
}

// CP15 is the system control coprocessor.
type CP15 struct {
	regs   map[Key]*register
	byName map[string]*register

	mmu    *mmu.MMU
	icache ICacheInvalidator
	sink   diag.Sink

	nmfi        bool
	highVectors bool
	vectorBase  uint32
}

// Option configures a CP15.
type Option func(*CP15)

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(s diag.Sink) Option {
	return func(c *CP15) {
		c.sink = diag.OrNop(s)
	}
}

// WithICacheInvalidator sets the receiver of instruction-cache maintenance.
func WithICacheInvalidator(inv ICacheInvalidator) Option {
	return func(c *CP15) {
		c.icache = inv
	}
}

// WithNMFI sets the non-maskable FIQ configuration bit of SCTLR.
func WithNMFI(nmfi bool) Option {
	return func(c *CP15) {
		c.nmfi = nmfi
	}
}

// WithHighVectors sets the reset value of SCTLR.V.
func WithHighVectors(high bool) Option {
	return func(c *CP15) {
		c.highVectors = high
	}
}

// New creates a CP15 in its reset state bound to m. The new coprocessor
// becomes the MMU's fault recorder.
func New(m *mmu.MMU, opts ...Option) *CP15 {
	c := &CP15{
		regs:   make(map[Key]*register, len(registerDefs)),
		byName: make(map[string]*register, len(registerDefs)),
		mmu:    m,
		sink:   diag.Nop{},
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, s := range registerDefs {
		r := &register{regDef: s}
		c.regs[s.key] = r
		c.byName[s.name] = r
	}

	m.SetFaultRecorder(c)
	c.Reset()

	return c
}

// Reset restores every register to its reset value and re-derives the MMU
// configuration.
func (c *CP15) Reset() {
	for _, r := range c.regs {
		r.value = r.reset
		if r.key == KeySCTLR {
			r.value = c.resetSCTLR()
		}
	}
	c.applyAll()
}

func (c *CP15) resetSCTLR() uint32 {
	v := sctlrReset
	if c.nmfi {
		v |= SCTLRNMFI
	}
	if c.highVectors {
		v |= SCTLRV
	}
	return v
}

// Read performs an MRC from the register at key.
func (c *CP15) Read(key Key, privileged bool) (uint32, error) {
	r, ok := c.regs[key]
	if !ok {
		return 0, faults.Newf(faults.NotImplemented, "CP15 read of %s", key)
	}
	if !privileged && r.user&userRead == 0 {
		return 0, faults.Newf(faults.UndefinedInstruction,
			"CP15 read of %s from PL0", r.name)
	}

	switch r.kind {
	case kindWO:
		return 0, faults.Newf(faults.UnpredictableOperation,
			"CP15 read of write-only %s", r.name)
	case kindRAZWI:
		return 0, nil
	}

	return r.value, nil
}

// Write performs an MCR to the register at key and applies its side
// effect.
func (c *CP15) Write(key Key, value uint32, privileged bool) error {
	r, ok := c.regs[key]
	if !ok {
		return faults.Newf(faults.NotImplemented, "CP15 write of %s", key)
	}
	if !privileged && r.user&userWrite == 0 {
		return faults.Newf(faults.UndefinedInstruction,
			"CP15 write of %s from PL0", r.name)
	}

	switch r.kind {
	case kindRO:
		return faults.Newf(faults.UndefinedInstruction,
			"CP15 write of read-only %s", r.name)
	case kindRAZWI:
		return nil
	case kindRW:
		r.value = r.value&^r.mask | value&r.mask
	}

	c.sink.Logf("cp15", "write %s = 0x%08x", r.name, value)
	c.apply(r, value)

	return nil
}

func (c *CP15) applyAll() {
	for _, r := range c.regs {
		if r.kind == kindRW && r.effect != effectNone {
			c.apply(r, r.value)
		}
	}
	c.updateVectorBase()
}

// apply performs the side effect of a write. For maintenance operations
// value is the operand, for registers the stored value is used.
func (c *CP15) apply(r *register, value uint32) {
	if r.kind == kindRW {
		value = r.value
	}

	switch r.effect {
	case effectSCTLR:
		c.mmu.SetEnabled(value&SCTLRM != 0)
		c.mmu.SetAlignmentCheck(value&SCTLRA != 0)
		c.updateVectorBase()
	case effectTTBR0:
		c.mmu.SetTTBR0(value)
	case effectTTBR1:
		c.mmu.SetTTBR1(value)
	case effectTTBCR:
		c.mmu.SetTTBCR(value)
	case effectDACR:
		c.mmu.SetDACR(value)
	case effectCONTEXTIDR:
		c.mmu.SetASID(uint8(value))
	case effectVBAR:
		c.updateVectorBase()
	case effectICache:
		if c.icache != nil {
			c.icache.InvalidateAll()
		}
	}
}

func (c *CP15) updateVectorBase() {
	if c.regs[KeySCTLR].value&SCTLRV != 0 {
		c.vectorBase = 0xFFFF0000
		return
	}
	c.vectorBase = c.regs[KeyVBAR].value
}

// VectorBase returns the address of the exception vector table.
func (c *CP15) VectorBase() uint32 {
	return c.vectorBase
}

// SCTLR returns the system control register.
func (c *CP15) SCTLR() uint32 {
	return c.regs[KeySCTLR].value
}

// SetMemoryAbort records a data abort in DFAR/DFSR. The same values are
// mirrored into IFAR/IFSR, so prefetch aborts read the last fault from
// either pair.
func (c *CP15) SetMemoryAbort(vaddr, status uint32, isWrite bool) {
	fsr := status & 0x4FF
	if isWrite {
		fsr |= 1 << 11
	}

	c.regs[KeyDFAR].value = vaddr
	c.regs[KeyDFSR].value = fsr
	c.regs[KeyIFAR].value = vaddr
	c.regs[KeyIFSR].value = fsr

	c.sink.Logf("cp15", "abort at 0x%08x fsr=0x%03x", vaddr, fsr)
}

// Values returns the stored value of every register that holds state,
// keyed by register name.
func (c *CP15) Values() map[string]uint32 {
	values := make(map[string]uint32, len(c.regs))
	for name, r := range c.byName {
		if r.kind == kindRW {
			values[name] = r.value
		}
	}
	return values
}

// Restore loads register values previously returned by Values and replays
// their side effects. Registers missing from values keep their current
// contents.
func (c *CP15) Restore(values map[string]uint32) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r, ok := c.byName[name]
		if !ok || r.kind != kindRW {
			return fmt.Errorf("cp15: cannot restore register %q", name)
		}
		r.value = values[name]
	}

	c.applyAll()
	return nil
}
