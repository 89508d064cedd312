package cp15

import "fmt"

// Key identifies a CP15 register by its MCR/MRC operands.
type Key struct {
	CRn  uint8
	Opc1 uint8
	CRm  uint8
	Opc2 uint8
}

func (k Key) String() string {
	return fmt.Sprintf("c%d, %d, c%d, %d", k.CRn, k.Opc1, k.CRm, k.Opc2)
}

// Frequently used registers.
var (
	KeyMIDR       = Key{0, 0, 0, 0}
	KeySCTLR      = Key{1, 0, 0, 0}
	KeyTTBR0      = Key{2, 0, 0, 0}
	KeyTTBR1      = Key{2, 0, 0, 1}
	KeyTTBCR      = Key{2, 0, 0, 2}
	KeyDACR       = Key{3, 0, 0, 0}
	KeyDFSR       = Key{5, 0, 0, 0}
	KeyIFSR       = Key{5, 0, 0, 1}
	KeyDFAR       = Key{6, 0, 0, 0}
	KeyIFAR       = Key{6, 0, 0, 2}
	KeyICIALLU    = Key{7, 0, 5, 0}
	KeyTLBIALL    = Key{8, 0, 7, 0}
	KeyVBAR       = Key{12, 0, 0, 0}
	KeyCONTEXTIDR = Key{13, 0, 0, 1}
	KeyTPIDRURW   = Key{13, 0, 0, 2}
	KeyTPIDRURO   = Key{13, 0, 0, 3}
)

// SCTLR bits.
const (
	SCTLRM    uint32 = 1 << 0
	SCTLRA    uint32 = 1 << 1
	SCTLRV    uint32 = 1 << 13
	SCTLREE   uint32 = 1 << 25
	SCTLRNMFI uint32 = 1 << 27
	SCTLRTE   uint32 = 1 << 30

	sctlrWritable uint32 = 0x72027C07
	sctlrReset    uint32 = 0x00C50078
)

type kind uint8

const (
	kindRW    kind = iota // read/write through mask
	kindRO                // read-only, writes are undefined
	kindWO                // maintenance operation
	kindRAZWI             // reads as zero, writes ignored
)

type effect uint8

const (
	effectNone effect = iota
	effectSCTLR
	effectTTBR0
	effectTTBR1
	effectTTBCR
	effectDACR
	effectCONTEXTIDR
	effectVBAR
	effectICache
)

// user access flags
const (
	userRead uint8 = 1 << iota
	userWrite
)

type regDef struct {
	key    Key
	name   string
	kind   kind
	reset  uint32
	mask   uint32
	user   uint8
	effect effect
}

func rw(k Key, name string, reset, mask uint32) regDef {
	return regDef{key: k, name: name, kind: kindRW, reset: reset, mask: mask}
}

func ro(k Key, name string, value uint32) regDef {
	return regDef{key: k, name: name, kind: kindRO, reset: value}
}

func op(k Key, name string) regDef {
	return regDef{key: k, name: name, kind: kindWO}
}

func (s regDef) withEffect(e effect) regDef {
	s.effect = e
	return s
}

func (s regDef) withUser(flags uint8) regDef {
	s.user = flags
	return s
}

// registerDefs lists every implemented register. Identification values
// are those of a Cortex-A8.
var registerDefs = []regDef{
	ro(KeyMIDR, "MIDR", 0x410FC080),
	ro(Key{0, 0, 0, 1}, "CTR", 0x82048004),
	ro(Key{0, 0, 0, 2}, "TCMTR", 0),
	ro(Key{0, 0, 0, 3}, "TLBTR", 0),
	ro(Key{0, 0, 0, 5}, "MPIDR", 0x80000000),
	ro(Key{0, 0, 0, 6}, "REVIDR", 0),
	ro(Key{0, 0, 1, 0}, "ID_PFR0", 0x00001031),
	ro(Key{0, 0, 1, 1}, "ID_PFR1", 0x00000011),
	ro(Key{0, 0, 1, 2}, "ID_DFR0", 0x00000400),
	ro(Key{0, 0, 1, 3}, "ID_AFR0", 0),
	ro(Key{0, 0, 1, 4}, "ID_MMFR0", 0x31100003),
	ro(Key{0, 0, 1, 5}, "ID_MMFR1", 0x20000000),
	ro(Key{0, 0, 1, 6}, "ID_MMFR2", 0x01202000),
	ro(Key{0, 0, 1, 7}, "ID_MMFR3", 0x00000011),
	ro(Key{0, 0, 2, 0}, "ID_ISAR0", 0x00101111),
	ro(Key{0, 0, 2, 1}, "ID_ISAR1", 0x12112111),
	ro(Key{0, 0, 2, 2}, "ID_ISAR2", 0x21232031),
	ro(Key{0, 0, 2, 3}, "ID_ISAR3", 0x11112131),
	ro(Key{0, 0, 2, 4}, "ID_ISAR4", 0x00111142),
	ro(Key{0, 0, 2, 5}, "ID_ISAR5", 0),
	ro(Key{0, 1, 0, 0}, "CCSIDR", 0xE007E01A),
	ro(Key{0, 1, 0, 1}, "CLIDR", 0x0A000023),
	ro(Key{0, 1, 0, 7}, "AIDR", 0),
	rw(Key{0, 2, 0, 0}, "CSSELR", 0, 0xF),

	rw(KeySCTLR, "SCTLR", sctlrReset, sctlrWritable).withEffect(effectSCTLR),
	rw(Key{1, 0, 0, 1}, "ACTLR", 0, 0xFFFFFFFF),
	rw(Key{1, 0, 0, 2}, "CPACR", 0, 0xFFFFFFFF),

	rw(KeyTTBR0, "TTBR0", 0, 0xFFFFFFFF).withEffect(effectTTBR0),
	rw(KeyTTBR1, "TTBR1", 0, 0xFFFFFFFF).withEffect(effectTTBR1),
	rw(KeyTTBCR, "TTBCR", 0, 0x37).withEffect(effectTTBCR),
	rw(KeyDACR, "DACR", 0, 0xFFFFFFFF).withEffect(effectDACR),

	rw(KeyDFSR, "DFSR", 0, 0xFFFFFFFF),
	rw(KeyIFSR, "IFSR", 0, 0xFFFFFFFF),
	rw(Key{5, 0, 1, 0}, "ADFSR", 0, 0xFFFFFFFF),
	rw(Key{5, 0, 1, 1}, "AIFSR", 0, 0xFFFFFFFF),
	rw(KeyDFAR, "DFAR", 0, 0xFFFFFFFF),
	rw(KeyIFAR, "IFAR", 0, 0xFFFFFFFF),
	rw(Key{7, 0, 4, 0}, "PAR", 0, 0xFFFFFFFF),

	op(Key{7, 0, 1, 0}, "ICIALLUIS").withEffect(effectICache),
	op(Key{7, 0, 1, 6}, "BPIALLIS").withEffect(effectICache),
	op(KeyICIALLU, "ICIALLU").withEffect(effectICache),
	op(Key{7, 0, 5, 1}, "ICIMVAU").withEffect(effectICache),
	op(Key{7, 0, 5, 4}, "CP15ISB").withUser(userWrite),
	op(Key{7, 0, 5, 6}, "BPIALL").withEffect(effectICache),
	op(Key{7, 0, 5, 7}, "BPIMVA"),
	op(Key{7, 0, 6, 1}, "DCIMVAC"),
	op(Key{7, 0, 6, 2}, "DCISW"),
	op(Key{7, 0, 10, 1}, "DCCMVAC"),
	op(Key{7, 0, 10, 2}, "DCCSW"),
	op(Key{7, 0, 10, 4}, "CP15DSB").withUser(userWrite),
	op(Key{7, 0, 10, 5}, "CP15DMB").withUser(userWrite),
	op(Key{7, 0, 11, 1}, "DCCMVAU"),
	op(Key{7, 0, 14, 1}, "DCCIMVAC"),
	op(Key{7, 0, 14, 2}, "DCCISW"),

	op(Key{8, 0, 3, 0}, "TLBIALLIS"),
	op(Key{8, 0, 3, 1}, "TLBIMVAIS"),
	op(Key{8, 0, 3, 2}, "TLBIASIDIS"),
	op(Key{8, 0, 3, 3}, "TLBIMVAAIS"),
	op(Key{8, 0, 5, 0}, "ITLBIALL"),
	op(Key{8, 0, 5, 1}, "ITLBIMVA"),
	op(Key{8, 0, 5, 2}, "ITLBIASID"),
	op(Key{8, 0, 6, 0}, "DTLBIALL"),
	op(Key{8, 0, 6, 1}, "DTLBIMVA"),
	op(Key{8, 0, 6, 2}, "DTLBIASID"),
	op(KeyTLBIALL, "TLBIALL"),
	op(Key{8, 0, 7, 1}, "TLBIMVA"),
	op(Key{8, 0, 7, 2}, "TLBIASID"),
	op(Key{8, 0, 7, 3}, "TLBIMVAA"),

	rw(Key{9, 0, 12, 0}, "PMCR", 0x41002000, 0x3F),
	rw(Key{9, 0, 14, 0}, "PMUSERENR", 0, 0x1).withUser(userRead),

	rw(Key{10, 0, 2, 0}, "PRRR", 0x00098AA4, 0xFFFFFFFF),
	rw(Key{10, 0, 2, 1}, "NMRR", 0x44E048E0, 0xFFFFFFFF),

	rw(KeyVBAR, "VBAR", 0, 0xFFFFFFE0).withEffect(effectVBAR),

	{key: Key{13, 0, 0, 0}, name: "FCSEIDR", kind: kindRAZWI},
	rw(KeyCONTEXTIDR, "CONTEXTIDR", 0, 0xFFFFFFFF).withEffect(effectCONTEXTIDR),
	rw(KeyTPIDRURW, "TPIDRURW", 0, 0xFFFFFFFF).withUser(userRead | userWrite),
	rw(KeyTPIDRURO, "TPIDRURO", 0, 0xFFFFFFFF).withUser(userRead),
	rw(Key{13, 0, 0, 4}, "TPIDRPRW", 0, 0xFFFFFFFF),
}
