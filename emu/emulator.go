// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/v7sim/cp15"
	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/icache"
	"github.com/sarchlab/v7sim/insts"
	"github.com/sarchlab/v7sim/loader"
	"github.com/sarchlab/v7sim/memory"
	"github.com/sarchlab/v7sim/mmu"
)

// DefaultRAMSize is the size of the RAM created when no bus is supplied.
const DefaultRAMSize = 128 * 1024 * 1024

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via semihosting exit).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Waiting is true while the core is parked by WFI.
	Waiting bool

	// Err is set if an error halted execution.
	Err error
}

// Emulator executes ARMv7-A instructions functionally.
type Emulator struct {
	*sim.HookableBase

	regFile *RegFile
	bus     memory.Bus
	mmu     *mmu.MMU
	cp15    *cp15.CP15
	decoder *insts.Decoder
	icache  *icache.Cache
	sink    diag.Sink

	semihosting bool
	semihost    *SemihostHandler

	// I/O
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Deferred PC write, applied after the handler returns.
	branchPending bool
	branchTarget  uint32

	// Interrupt lines, latched from any goroutine.
	irq     atomic.Bool
	fiq     atomic.Bool
	wake    chan struct{}
	waiting bool

	exclusiveValid bool
	exclusiveAddr  uint32

	highVectors bool
	nmfi        bool

	exited   bool
	exitCode int64

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithBus sets the physical memory the core is attached to.
func WithBus(bus memory.Bus) EmulatorOption {
	return func(e *Emulator) {
		e.bus = bus
	}
}

// WithDiagnostics sets the sink shared by the emulator, MMU and CP15.
func WithDiagnostics(s diag.Sink) EmulatorOption {
	return func(e *Emulator) {
		e.sink = s
	}
}

// WithDecodeCache enables the decoded-instruction cache.
func WithDecodeCache(config icache.Config) EmulatorOption {
	return func(e *Emulator) {
		e.icache = icache.New(config)
	}
}

// WithSemihosting enables ARM semihosting through SVC #0x123456.
func WithSemihosting(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.semihosting = enabled
	}
}

// WithStdin sets a custom stdin reader for semihosting.
func WithStdin(r io.Reader) EmulatorOption {
	return func(e *Emulator) {
		e.stdin = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.R[13] = sp
	}
}

// WithHighVectors resets SCTLR.V to 1.
func WithHighVectors(high bool) EmulatorOption {
	return func(e *Emulator) {
		e.highVectors = high
	}
}

// WithNMFI makes FIQs non-maskable by software.
func WithNMFI(nmfi bool) EmulatorOption {
	return func(e *Emulator) {
		e.nmfi = nmfi
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new ARMv7-A emulator in the reset state.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		HookableBase: sim.NewHookableBase(),
		regFile:      NewRegFile(),
		decoder:      insts.NewDecoder(),
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		wake:         make(chan struct{}, 1),
	}

	// Apply options first (may set bus, sink and I/O)
	for _, opt := range opts {
		opt(e)
	}

	e.sink = diag.OrNop(e.sink)
	if e.bus == nil {
		e.bus = memory.NewRAM(0, DefaultRAMSize)
	}

	e.mmu = mmu.New(e.bus, mmu.WithDiagnostics(e.sink))

	cpOpts := []cp15.Option{
		cp15.WithDiagnostics(e.sink),
		cp15.WithHighVectors(e.highVectors),
		cp15.WithNMFI(e.nmfi),
	}
	if e.icache != nil {
		cpOpts = append(cpOpts, cp15.WithICacheInvalidator(e.icache))
	}
	e.cp15 = cp15.New(e.mmu, cpOpts...)

	e.semihost = NewSemihostHandler(e.regFile, e, e.stdin, e.stdout, e.stderr)
	e.semihost.SetDiagnostics(e.sink)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Bus returns the physical memory.
func (e *Emulator) Bus() memory.Bus {
	return e.bus
}

// MMU returns the memory management unit.
func (e *Emulator) MMU() *mmu.MMU {
	return e.mmu
}

// CP15 returns the system control coprocessor.
func (e *Emulator) CP15() *cp15.CP15 {
	return e.cp15
}

// DecodeCache returns the decoded-instruction cache, or nil.
func (e *Emulator) DecodeCache() *icache.Cache {
	return e.icache
}

// InstructionCount returns the number of instructions retired.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies a program into physical memory and sets the entry
// point and stack pointer. The bus must accept images.
func (e *Emulator) LoadProgram(prog *loader.Program) error {
	w, ok := e.bus.(loader.ImageWriter)
	if !ok {
		return fmt.Errorf("memory bus %T cannot load program images", e.bus)
	}
	if err := prog.LoadInto(w); err != nil {
		return err
	}

	e.regFile.PC = prog.EntryPoint
	if prog.InitialSP != 0 {
		e.regFile.R[13] = prog.InitialSP
	}
	if e.icache != nil {
		e.icache.InvalidateAll()
	}
	return nil
}

// Interrupt raises the IRQ line. It may be called from any goroutine.
func (e *Emulator) Interrupt() {
	e.irq.Store(true)
	e.signal()
}

// FastInterrupt raises the FIQ line. It may be called from any goroutine.
func (e *Emulator) FastInterrupt() {
	e.fiq.Store(true)
	e.signal()
}

func (e *Emulator) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Step executes a single instruction, or takes a pending interrupt.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	if taken, err := e.takeInterrupt(); err != nil {
		return StepResult{Err: err}
	} else if taken {
		return StepResult{}
	}

	if e.waiting {
		return StepResult{Waiting: true}
	}

	cpsr := e.regFile.CPSR
	if cpsr.Has(PSRT) || cpsr.Has(PSRJ) {
		return StepResult{Err: faults.New(faults.NotImplemented, "Thumb/Jazelle execution state")}
	}

	pc := e.regFile.PC

	// 1. Fetch and decode
	inst, err := e.fetch(pc)
	if err != nil {
		return e.raise(err, pc, true)
	}

	// 2. Execute
	executed := ConditionPassed(inst.Cond, cpsr)
	if executed {
		if err := e.execute(&inst); err != nil {
			e.branchPending = false
			return e.raise(err, pc, false)
		}
	}

	// 3. Retire
	e.retire(pc, &inst, executed)

	if e.exited {
		return StepResult{Exited: true, ExitCode: e.exitCode}
	}
	return StepResult{}
}

func (e *Emulator) retire(pc uint32, inst *insts.Instruction, executed bool) {
	if e.branchPending {
		e.regFile.PC = e.branchTarget
		e.branchPending = false
	} else {
		e.regFile.PC = pc + 4
	}
	e.instructionCount++

	if e.NumHooks() > 0 {
		e.InvokeHook(sim.HookCtx{
			Pos:    diag.HookPosRetire,
			Item:   *inst,
			Detail: diag.Retire{Addr: pc, Mode: e.regFile.Mode(), Executed: executed},
		})
	}
}

// raise turns a guest-visible fault into an exception. Anything else halts
// the session with the PC left on the faulting instruction.
func (e *Emulator) raise(err error, pc uint32, fetch bool) StepResult {
	f, ok := faults.As(err)
	if !ok || !f.IsGuestVisible() {
		return StepResult{Err: err}
	}

	kind := excDataAbort
	switch {
	case f.Category == faults.UndefinedInstruction:
		kind = excUndefined
	case fetch:
		kind = excPrefetchAbort
	}

	if err := e.enterException(kind, pc); err != nil {
		return StepResult{Err: err}
	}
	e.applyBranch()
	return StepResult{}
}

func (e *Emulator) applyBranch() {
	if e.branchPending {
		e.regFile.PC = e.branchTarget
		e.branchPending = false
	}
}

// takeInterrupt samples the interrupt lines at an instruction boundary.
// A pending line wakes WFI even while masked.
func (e *Emulator) takeInterrupt() (bool, error) {
	fiq := e.fiq.Load()
	irq := e.irq.Load()
	if !fiq && !irq {
		return false, nil
	}
	e.waiting = false

	cpsr := e.regFile.CPSR
	var kind exceptionKind
	switch {
	case fiq && !cpsr.Has(PSRF):
		e.fiq.Store(false)
		kind = excFIQ
	case irq && !cpsr.Has(PSRI):
		e.irq.Store(false)
		kind = excIRQ
	default:
		return false, nil
	}

	if err := e.enterException(kind, e.regFile.PC); err != nil {
		return false, err
	}
	e.applyBranch()
	return true, nil
}

// Run executes until the program exits or an error occurs.
// Returns the exit code (or -1 on error).
func (e *Emulator) Run() int64 {
	return e.RunContext(context.Background())
}

// RunContext is Run with cancellation. While the core waits for an
// interrupt it blocks on the wake channel or ctx.
func (e *Emulator) RunContext(ctx context.Context) int64 {
	for {
		result := e.Step()

		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}

		if result.Exited {
			return result.ExitCode
		}

		if result.Waiting {
			select {
			case <-e.wake:
			case <-ctx.Done():
				_, _ = fmt.Fprintf(e.stderr, "Emulation stopped: %v\n", ctx.Err())
				return -1
			}
			continue
		}

		if ctx.Err() != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation stopped: %v\n", ctx.Err())
			return -1
		}
	}
}

// branchTo records the PC the instruction writes. It takes effect once the
// handler has returned.
func (e *Emulator) branchTo(target uint32) {
	e.branchPending = true
	e.branchTarget = target
}

// branchWritePC is a plain branch in ARM state.
func (e *Emulator) branchWritePC(target uint32) {
	e.branchTo(target &^ 3)
}

// bxWritePC is an interworking branch. Thumb targets are not supported.
func (e *Emulator) bxWritePC(target uint32) error {
	switch {
	case target&1 != 0:
		return faults.WithValue(faults.NotImplemented, "interworking branch to Thumb", target)
	case target&2 != 0:
		return faults.WithValue(faults.UnpredictableOperation, "branch to unaligned ARM address", target)
	}
	e.branchTo(target)
	return nil
}

func (e *Emulator) clearExclusive() {
	e.exclusiveValid = false
}

func (e *Emulator) exit(code int64) {
	e.exited = true
	e.exitCode = code
}
