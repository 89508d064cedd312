// Package insts provides ARMv7-A (ARM state) instruction definitions and
// decoding.
//
// This package turns 32-bit ARM machine words into Instruction values: an
// operation tag plus the decoded field payload the executor needs. The
// decoder follows the architecture's decode tables in order:
//   - Data-processing and miscellaneous (register, register-shifted register,
//     immediate, MOVW/MOVT, MSR and hints, multiplies, synchronization,
//     extra load/store)
//   - Load/store word and unsigned byte
//   - Media (pack/unpack, saturate, reverse, signed multiplies, bitfields)
//   - Branch, branch with link, block data transfer
//   - Coprocessor (CP15 MRC/MCR) and supervisor call
//   - The unconditional space (CPS, SETEND, hints, barriers, SRS, RFE)
//
// Encodings the core does not execute come back as *faults.Fault errors
// whose category tells the caller whether to halt or to raise an Undefined
// Instruction exception in the guest.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0xE3A00001, 0x8000) // MOV r0, #1
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Imm)
package insts
