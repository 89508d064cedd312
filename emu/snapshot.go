// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/v7sim/mmu"
)

// BankedRegs holds the registers private to one mode.
type BankedRegs struct {
	SP   uint32 `json:"sp"`
	LR   uint32 `json:"lr"`
	SPSR uint32 `json:"spsr"`
}

// Snapshot is the architectural state of the core at an instruction
// boundary. Physical memory is not included.
type Snapshot struct {
	R    [15]uint32 `json:"r"`
	PC   uint32     `json:"pc"`
	CPSR uint32     `json:"cpsr"`

	// Banks is keyed by mode name.
	Banks   map[string]BankedRegs `json:"banks"`
	USRHigh [5]uint32             `json:"usr_high"`
	FIQHigh [5]uint32             `json:"fiq_high"`

	CP15 map[string]uint32 `json:"cp15"`
	MMU  mmu.Config        `json:"mmu"`

	ExclusiveValid bool   `json:"exclusive_valid"`
	ExclusiveAddr  uint32 `json:"exclusive_addr"`
	Waiting        bool   `json:"waiting"`

	InstructionCount uint64 `json:"instruction_count"`
}

var bankModes = [numBanks]uint32{
	bankUSR: ModeUSR,
	bankFIQ: ModeFIQ,
	bankIRQ: ModeIRQ,
	bankSVC: ModeSVC,
	bankMON: ModeMON,
	bankABT: ModeABT,
	bankUND: ModeUND,
}

// Save captures the core state. It must be called between steps.
func (e *Emulator) Save() *Snapshot {
	rf := e.regFile
	s := &Snapshot{
		R:                rf.R,
		PC:               rf.PC,
		CPSR:             uint32(rf.CPSR),
		Banks:            make(map[string]BankedRegs, numBanks),
		USRHigh:          rf.usrHigh,
		FIQHigh:          rf.fiqHigh,
		CP15:             e.cp15.Values(),
		MMU:              e.mmu.Config(),
		ExclusiveValid:   e.exclusiveValid,
		ExclusiveAddr:    e.exclusiveAddr,
		Waiting:          e.waiting,
		InstructionCount: e.instructionCount,
	}

	for b, mode := range bankModes {
		s.Banks[ModeName(mode)] = BankedRegs{
			SP:   rf.bankedSP[b],
			LR:   rf.bankedLR[b],
			SPSR: uint32(rf.spsr[b]),
		}
	}
	return s
}

// Restore loads a snapshot taken by Save. CP15 registers are written back
// through their side effects, and the MMU configuration they produce must
// match the one saved. A semihosting exit and any pending interrupt lines
// are discarded.
func (e *Emulator) Restore(s *Snapshot) error {
	if !ValidMode(s.CPSR & 0x1F) {
		return fmt.Errorf("snapshot: invalid CPSR mode 0x%02x", s.CPSR&0x1F)
	}

	if err := e.cp15.Restore(s.CP15); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if got := e.mmu.Config(); got != s.MMU {
		return fmt.Errorf("snapshot: MMU configuration %+v does not match saved %+v", got, s.MMU)
	}

	rf := e.regFile
	rf.R = s.R
	rf.PC = s.PC
	rf.CPSR = PSR(s.CPSR)
	rf.usrHigh = s.USRHigh
	rf.fiqHigh = s.FIQHigh
	for b, mode := range bankModes {
		regs, ok := s.Banks[ModeName(mode)]
		if !ok {
			continue
		}
		rf.bankedSP[b] = regs.SP
		rf.bankedLR[b] = regs.LR
		rf.spsr[b] = PSR(regs.SPSR)
	}

	e.exclusiveValid = s.ExclusiveValid
	e.exclusiveAddr = s.ExclusiveAddr
	e.waiting = s.Waiting
	e.instructionCount = s.InstructionCount
	e.branchPending = false
	e.exited = false
	e.exitCode = 0
	e.irq.Store(false)
	e.fiq.Store(false)
	select {
	case <-e.wake:
	default:
	}

	if e.icache != nil {
		e.icache.InvalidateAll()
	}
	return nil
}

// Encode writes the snapshot as JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
