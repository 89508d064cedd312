package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/cp15"
	"github.com/sarchlab/v7sim/emu"
	"github.com/sarchlab/v7sim/memory"
)

var _ = Describe("Snapshot", func() {
	var (
		ram *memory.RAM
		e   *emu.Emulator
	)

	BeforeEach(func() {
		ram = memory.NewRAM(0, ramSize)
		e = emu.NewEmulator(emu.WithBus(ram))
		rf := e.RegFile()
		rf.PC = codeBase
		rf.R[0] = 0x1234
		rf.R[13] = 0x8000
		Expect(rf.ChangeMode(emu.ModeIRQ)).To(Succeed())
		rf.R[13] = 0x7000
		rf.SetSPSR(emu.PSR(emu.ModeSVC) | emu.PSRZ)
		Expect(rf.ChangeMode(emu.ModeFIQ)).To(Succeed())
		rf.R[8] = 0x88
		Expect(rf.ChangeMode(emu.ModeSVC)).To(Succeed())
		Expect(e.CP15().Write(cp15.KeyVBAR, 0x4000, true)).To(Succeed())
		Expect(e.CP15().Write(cp15.KeyDACR, 0x55555555, true)).To(Succeed())
	})

	It("should be a no-op to restore the state just saved", func() {
		s := e.Save()

		Expect(e.Restore(s)).To(Succeed())

		Expect(e.Save()).To(Equal(s))
	})

	It("should roll back execution", func() {
		place(ram, codeBase, 0xE3A00001, 0xEF000000) // MOV r0, #1; SVC #0
		s := e.Save()

		Expect(e.Step().Err).NotTo(HaveOccurred())
		Expect(e.Step().Err).NotTo(HaveOccurred())
		Expect(e.RegFile().PC).To(Equal(uint32(0x4008)))

		Expect(e.Restore(s)).To(Succeed())

		rf := e.RegFile()
		Expect(rf.PC).To(Equal(uint32(codeBase)))
		Expect(rf.R[0]).To(Equal(uint32(0x1234)))
		Expect(rf.Mode()).To(Equal(emu.ModeSVC))
		Expect(e.InstructionCount()).To(BeZero())
	})

	It("should resume after rolling back over a semihosting exit", func() {
		e = emu.NewEmulator(
			emu.WithBus(ram),
			emu.WithSemihosting(true),
			emu.WithStdout(&bytes.Buffer{}),
			emu.WithStderr(&bytes.Buffer{}),
		)
		e.RegFile().PC = codeBase
		place(ram, codeBase,
			0xE3A00018, // MOV r0, #0x18
			0xE3001026, // MOVW r1, #0x26
			0xE3401002, // MOVT r1, #0x2
			0xEF123456, // SVC #0x123456
		)
		s := e.Save()

		Expect(e.Run()).To(Equal(int64(0)))
		Expect(e.Restore(s)).To(Succeed())

		place(ram, codeBase, 0xE3A00001) // MOV r0, #1
		res := e.Step()
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Exited).To(BeFalse())
		Expect(e.RegFile().R[0]).To(Equal(uint32(1)))
	})

	It("should drop interrupt lines raised before the rollback", func() {
		place(ram, codeBase, 0xE320F000) // NOP
		e.RegFile().CPSR.Set(emu.PSRI|emu.PSRF, false)
		s := e.Save()

		e.Interrupt()
		e.FastInterrupt()
		Expect(e.Restore(s)).To(Succeed())
		Expect(e.Step().Err).NotTo(HaveOccurred())

		rf := e.RegFile()
		Expect(rf.Mode()).To(Equal(emu.ModeSVC))
		Expect(rf.PC).To(Equal(uint32(codeBase + 4)))
	})

	It("should carry banked registers through JSON into a new core", func() {
		buf := &bytes.Buffer{}
		Expect(e.Save().Encode(buf)).To(Succeed())

		s, err := emu.DecodeSnapshot(buf)
		Expect(err).NotTo(HaveOccurred())

		other := emu.NewEmulator(emu.WithBus(memory.NewRAM(0, ramSize)))
		Expect(other.Restore(s)).To(Succeed())

		rf := other.RegFile()
		Expect(rf.R[13]).To(Equal(uint32(0x8000)))
		sp, err := rf.BankedSP(emu.ModeIRQ)
		Expect(err).NotTo(HaveOccurred())
		Expect(sp).To(Equal(uint32(0x7000)))

		Expect(rf.ChangeMode(emu.ModeIRQ)).To(Succeed())
		Expect(rf.SPSR()).To(Equal(emu.PSR(emu.ModeSVC) | emu.PSRZ))
		Expect(rf.ChangeMode(emu.ModeFIQ)).To(Succeed())
		Expect(rf.R[8]).To(Equal(uint32(0x88)))
	})

	It("should re-derive the vector base and MMU state from CP15", func() {
		s := e.Save()
		s.CP15["SCTLR"] |= cp15.SCTLRV | cp15.SCTLRA
		s.MMU.AlignmentCheck = true

		other := emu.NewEmulator(emu.WithBus(memory.NewRAM(0, ramSize)))
		Expect(other.Restore(s)).To(Succeed())

		Expect(other.CP15().VectorBase()).To(Equal(uint32(0xFFFF0000)))
		Expect(other.MMU().Config().AlignmentCheck).To(BeTrue())
		Expect(other.MMU().Config().DACR).To(Equal(uint32(0x55555555)))
	})

	It("should reject an MMU configuration that CP15 does not produce", func() {
		s := e.Save()
		s.MMU.DACR = 0

		Expect(e.Restore(s)).To(MatchError(ContainSubstring("MMU configuration")))
	})

	It("should reject a snapshot with an invalid mode", func() {
		s := e.Save()
		s.CPSR = s.CPSR&^0x1F | 0x15

		Expect(e.Restore(s)).NotTo(Succeed())
	})

	It("should fail to decode garbage", func() {
		_, err := emu.DecodeSnapshot(bytes.NewBufferString("{"))
		Expect(err).To(MatchError(ContainSubstring("failed to decode snapshot")))
	})
})
