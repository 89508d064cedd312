package cp15_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/cp15"
	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/memory"
	"github.com/sarchlab/v7sim/mmu"
)

type countingInvalidator struct {
	count int
}

func (c *countingInvalidator) InvalidateAll() {
	c.count++
}

var _ = Describe("CP15", func() {
	var (
		m   *mmu.MMU
		c   *cp15.CP15
		inv *countingInvalidator
	)

	BeforeEach(func() {
		m = mmu.New(memory.NewRAM(0, 1<<20))
		inv = &countingInvalidator{}
		c = cp15.New(m, cp15.WithICacheInvalidator(inv))
	})

	It("should report the Cortex-A8 main ID", func() {
		v, err := c.Read(cp15.KeyMIDR, true)

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x410FC080)))
	})

	It("should reset SCTLR with the MMU off and low vectors", func() {
		Expect(c.SCTLR() & cp15.SCTLRM).To(BeZero())
		Expect(c.VectorBase()).To(Equal(uint32(0)))
		Expect(m.Config().Enabled).To(BeFalse())
	})

	It("should honour the reset options", func() {
		c = cp15.New(m, cp15.WithHighVectors(true), cp15.WithNMFI(true))

		Expect(c.VectorBase()).To(Equal(uint32(0xFFFF0000)))
		Expect(c.SCTLR() & cp15.SCTLRNMFI).NotTo(BeZero())
	})

	Context("side effects", func() {
		It("should enable the MMU and alignment checking from SCTLR", func() {
			Expect(c.Write(cp15.KeySCTLR, c.SCTLR()|cp15.SCTLRM|cp15.SCTLRA, true)).To(Succeed())

			Expect(m.Config().Enabled).To(BeTrue())
			Expect(m.AlignmentCheck()).To(BeTrue())
		})

		It("should forward table bases, TTBCR and DACR", func() {
			Expect(c.Write(cp15.KeyTTBR0, 0x4000, true)).To(Succeed())
			Expect(c.Write(cp15.KeyTTBR1, 0x8000, true)).To(Succeed())
			Expect(c.Write(cp15.KeyTTBCR, 0xFFFFFFFF, true)).To(Succeed())
			Expect(c.Write(cp15.KeyDACR, 0x55555555, true)).To(Succeed())
			Expect(c.Write(cp15.KeyCONTEXTIDR, 0x1234, true)).To(Succeed())

			cfg := m.Config()
			Expect(cfg.TTBR0).To(Equal(uint32(0x4000)))
			Expect(cfg.TTBR1).To(Equal(uint32(0x8000)))
			Expect(cfg.N).To(Equal(uint8(7)))
			Expect(cfg.PD0).To(BeTrue())
			Expect(cfg.PD1).To(BeTrue())
			Expect(cfg.DACR).To(Equal(uint32(0x55555555)))
			Expect(cfg.ASID).To(Equal(uint8(0x34)))

			v, err := c.Read(cp15.KeyTTBCR, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0x37)))
		})

		It("should move the vector base with VBAR and SCTLR.V", func() {
			Expect(c.Write(cp15.KeyVBAR, 0x80001234, true)).To(Succeed())
			Expect(c.VectorBase()).To(Equal(uint32(0x80001220)))

			Expect(c.Write(cp15.KeySCTLR, c.SCTLR()|cp15.SCTLRV, true)).To(Succeed())
			Expect(c.VectorBase()).To(Equal(uint32(0xFFFF0000)))
		})

		It("should flush the decode cache on instruction-cache maintenance", func() {
			Expect(c.Write(cp15.KeyICIALLU, 0, true)).To(Succeed())
			Expect(c.Write(cp15.Key{CRn: 7, CRm: 5, Opc2: 6}, 0, true)).To(Succeed())

			Expect(inv.count).To(Equal(2))
		})

		It("should accept TLB maintenance as a no-op", func() {
			Expect(c.Write(cp15.KeyTLBIALL, 0, true)).To(Succeed())
			Expect(inv.count).To(BeZero())
		})
	})

	Context("access control", func() {
		It("should reject unknown registers as not implemented", func() {
			_, err := c.Read(cp15.Key{CRn: 15, Opc1: 7}, true)
			Expect(faults.Is(err, faults.NotImplemented)).To(BeTrue())

			err = c.Write(cp15.Key{CRn: 15, Opc1: 7}, 0, true)
			Expect(faults.Is(err, faults.NotImplemented)).To(BeTrue())
		})

		It("should make PL0 access to privileged registers undefined", func() {
			_, err := c.Read(cp15.KeySCTLR, false)
			Expect(faults.Is(err, faults.UndefinedInstruction)).To(BeTrue())
		})

		It("should let PL0 use the user thread ID registers", func() {
			Expect(c.Write(cp15.KeyTPIDRURW, 7, false)).To(Succeed())
			v, err := c.Read(cp15.KeyTPIDRURW, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(7)))

			Expect(c.Write(cp15.KeyTPIDRURO, 9, true)).To(Succeed())
			v, err = c.Read(cp15.KeyTPIDRURO, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(9)))

			err = c.Write(cp15.KeyTPIDRURO, 1, false)
			Expect(faults.Is(err, faults.UndefinedInstruction)).To(BeTrue())
		})

		It("should refuse writes to identification registers", func() {
			err := c.Write(cp15.KeyMIDR, 0, true)
			Expect(faults.Is(err, faults.UndefinedInstruction)).To(BeTrue())
		})
	})

	It("should mirror memory aborts into both fault register pairs", func() {
		c.SetMemoryAbort(0x80001000, 0x0D|2<<4, true)

		for _, key := range []cp15.Key{cp15.KeyDFSR, cp15.KeyIFSR} {
			v, err := c.Read(key, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0x82D)))
		}
		for _, key := range []cp15.Key{cp15.KeyDFAR, cp15.KeyIFAR} {
			v, err := c.Read(key, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0x80001000)))
		}
	})

	It("should receive MMU faults as the fault recorder", func() {
		Expect(c.Write(cp15.KeySCTLR, c.SCTLR()|cp15.SCTLRM, true)).To(Succeed())

		_, err := m.Translate(0x00300000, mmu.Access{Write: true})
		Expect(faults.Is(err, faults.TranslationFault)).To(BeTrue())

		dfar, _ := c.Read(cp15.KeyDFAR, true)
		dfsr, _ := c.Read(cp15.KeyDFSR, true)
		Expect(dfar).To(Equal(uint32(0x00300000)))
		Expect(dfsr).To(Equal(uint32(1<<11 | 0x05)))
	})

	It("should restore saved values through the side-effect path", func() {
		Expect(c.Write(cp15.KeyTTBR0, 0x4000, true)).To(Succeed())
		Expect(c.Write(cp15.KeyDACR, 0xFFFFFFFF, true)).To(Succeed())
		Expect(c.Write(cp15.KeySCTLR, c.SCTLR()|cp15.SCTLRM, true)).To(Succeed())
		saved := c.Values()
		want := m.Config()

		other := mmu.New(memory.NewRAM(0, 1<<20))
		restored := cp15.New(other)
		Expect(restored.Restore(saved)).To(Succeed())

		Expect(other.Config()).To(Equal(want))
		Expect(restored.Values()).To(Equal(saved))
	})

	It("should refuse to restore unknown registers", func() {
		Expect(c.Restore(map[string]uint32{"MIDR": 1})).NotTo(Succeed())
		Expect(c.Restore(map[string]uint32{"NOPE": 1})).NotTo(Succeed())
	})
})
