package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/emu"
	"github.com/sarchlab/v7sim/faults"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = emu.NewRegFile()
	})

	It("should reset into SVC mode with interrupts masked", func() {
		Expect(rf.Mode()).To(Equal(emu.ModeSVC))
		Expect(rf.CPSR.Has(emu.PSRI)).To(BeTrue())
		Expect(rf.CPSR.Has(emu.PSRF)).To(BeTrue())
		Expect(rf.CPSR.Has(emu.PSRA)).To(BeTrue())
	})

	It("should read the PC as the instruction address plus 8", func() {
		rf.PC = 0x1000
		Expect(rf.ReadReg(15)).To(Equal(uint32(0x1008)))
	})

	Describe("ChangeMode", func() {
		It("should bank SP and LR per mode", func() {
			rf.R[13] = 0x100
			rf.R[14] = 0x104

			Expect(rf.ChangeMode(emu.ModeIRQ)).To(Succeed())
			Expect(rf.R[13]).To(BeZero())
			rf.R[13] = 0x200

			Expect(rf.ChangeMode(emu.ModeSVC)).To(Succeed())
			Expect(rf.R[13]).To(Equal(uint32(0x100)))
			Expect(rf.R[14]).To(Equal(uint32(0x104)))

			sp, err := rf.BankedSP(emu.ModeIRQ)
			Expect(err).NotTo(HaveOccurred())
			Expect(sp).To(Equal(uint32(0x200)))
		})

		It("should share the bank between USR and SYS", func() {
			Expect(rf.ChangeMode(emu.ModeSYS)).To(Succeed())
			rf.R[13] = 0x300
			Expect(rf.ChangeMode(emu.ModeUSR)).To(Succeed())
			Expect(rf.R[13]).To(Equal(uint32(0x300)))
			Expect(rf.HasSPSR()).To(BeFalse())
		})

		It("should swap r8-r12 only across FIQ", func() {
			rf.R[8] = 8
			rf.R[12] = 12

			Expect(rf.ChangeMode(emu.ModeIRQ)).To(Succeed())
			Expect(rf.R[8]).To(Equal(uint32(8)))

			Expect(rf.ChangeMode(emu.ModeFIQ)).To(Succeed())
			Expect(rf.R[8]).To(BeZero())
			rf.R[8] = 0x88
			Expect(rf.UserReg(8)).To(Equal(uint32(8)))

			Expect(rf.ChangeMode(emu.ModeSVC)).To(Succeed())
			Expect(rf.R[8]).To(Equal(uint32(8)))
			Expect(rf.R[12]).To(Equal(uint32(12)))

			Expect(rf.ChangeMode(emu.ModeFIQ)).To(Succeed())
			Expect(rf.R[8]).To(Equal(uint32(0x88)))
		})

		It("should reject an invalid mode and keep the state", func() {
			before := *rf
			err := rf.ChangeMode(0x15)
			Expect(faults.Is(err, faults.UnpredictableOperation)).To(BeTrue())
			Expect(*rf).To(Equal(before))
		})
	})

	Describe("SPSR", func() {
		It("should keep one SPSR per exception mode", func() {
			rf.SetSPSR(emu.PSR(emu.ModeUSR) | emu.PSRZ)
			Expect(rf.ChangeMode(emu.ModeABT)).To(Succeed())
			Expect(rf.SPSR()).To(BeZero())
			Expect(rf.ChangeMode(emu.ModeSVC)).To(Succeed())
			Expect(rf.SPSR()).To(Equal(emu.PSR(emu.ModeUSR) | emu.PSRZ))
		})

		It("should write SPSR byte groups through the mask", func() {
			rf.SetSPSR(emu.PSR(emu.ModeUSR))
			Expect(rf.SPSRWriteByInstr(0xF00000D3, 0b1000)).To(Succeed())
			Expect(uint32(rf.SPSR())).To(Equal(uint32(0xF0000010)))
		})

		It("should fail in USR mode", func() {
			Expect(rf.ChangeMode(emu.ModeUSR)).To(Succeed())
			err := rf.SPSRWriteByInstr(0, 0b1000)
			Expect(faults.Is(err, faults.UnpredictableOperation)).To(BeTrue())
		})
	})

	Describe("CPSRWriteByInstr", func() {
		It("should change mode through the control byte", func() {
			Expect(rf.CPSRWriteByInstr(emu.ModeSYS, 0b0001, false, false)).To(Succeed())
			Expect(rf.Mode()).To(Equal(emu.ModeSYS))
			Expect(rf.CPSR.Has(emu.PSRF)).To(BeFalse())
		})

		It("should only update the flags in USR mode", func() {
			Expect(rf.ChangeMode(emu.ModeUSR)).To(Succeed())
			Expect(rf.CPSRWriteByInstr(0xF0000013, 0b1001, false, false)).To(Succeed())
			Expect(rf.Mode()).To(Equal(emu.ModeUSR))
			Expect(rf.CPSR.Has(emu.PSRN)).To(BeTrue())
			Expect(rf.CPSR.Has(emu.PSRI)).To(BeTrue())
		})

		It("should not let software clear F with NMFI", func() {
			Expect(rf.CPSRWriteByInstr(emu.ModeSVC, 0b0001, false, true)).To(Succeed())
			Expect(rf.CPSR.Has(emu.PSRF)).To(BeTrue())
			Expect(rf.CPSR.Has(emu.PSRI)).To(BeFalse())
		})

		It("should reject an invalid mode without side effects", func() {
			before := rf.CPSR
			err := rf.CPSRWriteByInstr(0xF0000015, 0b1001, false, false)
			Expect(faults.Is(err, faults.UnpredictableOperation)).To(BeTrue())
			Expect(rf.CPSR).To(Equal(before))
		})
	})
})
