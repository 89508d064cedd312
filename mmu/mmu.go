// Package mmu implements the ARMv7-A short-descriptor virtual memory
// system: a two-level page-table walk with domain, access-permission and
// execute-never checks.
//
// There is no TLB. Every access walks the tables again, so TLB maintenance
// needs no work from this package.
package mmu

import (
	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/memory"
)

// Fault status codes written to DFSR/IFSR.
const (
	StatusAlignment          uint32 = 0x01
	StatusDebug              uint32 = 0x02
	StatusTranslationSection uint32 = 0x05
	StatusTranslationPage    uint32 = 0x07
	StatusExternalAbort      uint32 = 0x08
	StatusDomainSection      uint32 = 0x09
	StatusDomainPage         uint32 = 0x0B
	StatusWalkAbortSection   uint32 = 0x0C
	StatusPermissionSection  uint32 = 0x0D
	StatusWalkAbortPage      uint32 = 0x0E
	StatusPermissionPage     uint32 = 0x0F
)

const (
	statusDomainShift = 4
	domainUnknown     = uint32(0xFF)
)

// FaultRecorder receives the fault address and status of every abort the
// MMU raises. CP15 implements it.
type FaultRecorder interface {
	SetMemoryAbort(vaddr, status uint32, isWrite bool)
}

// Access describes the kind of memory access being translated.
type Access struct {
	Write bool
	User  bool // unprivileged (PL0 or a T-form load/store)
	Fetch bool
}

// Config is the translation state derived from CP15.
type Config struct {
	Enabled        bool   `json:"enabled"`
	AlignmentCheck bool   `json:"alignment_check"`
	TTBR0          uint32 `json:"ttbr0"`
	TTBR1          uint32 `json:"ttbr1"`
	N              uint8  `json:"n"`
	PD0            bool   `json:"pd0"`
	PD1            bool   `json:"pd1"`
	DACR           uint32 `json:"dacr"`
	ASID           uint8  `json:"asid"`
}

// MMU translates virtual addresses to physical addresses.
type MMU struct {
	bus      memory.Bus
	recorder FaultRecorder
	sink     diag.Sink
	cfg      Config
}

// Option configures an MMU.
type Option func(*MMU)

// WithFaultRecorder sets the recorder notified on every fault.
func WithFaultRecorder(r FaultRecorder) Option {
	return func(m *MMU) {
		m.recorder = r
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(s diag.Sink) Option {
	return func(m *MMU) {
		m.sink = diag.OrNop(s)
	}
}

// New creates a disabled MMU walking tables through bus.
func New(bus memory.Bus, opts ...Option) *MMU {
	m := &MMU{
		bus:  bus,
		sink: diag.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetFaultRecorder sets the recorder after construction. CP15 and the MMU
// reference each other, so one of them has to be wired late.
func (m *MMU) SetFaultRecorder(r FaultRecorder) {
	m.recorder = r
}

// Config returns a copy of the translation state.
func (m *MMU) Config() Config {
	return m.cfg
}

// SetEnabled turns translation on or off (SCTLR.M).
func (m *MMU) SetEnabled(enabled bool) {
	m.cfg.Enabled = enabled
}

// SetAlignmentCheck sets strict alignment checking (SCTLR.A).
func (m *MMU) SetAlignmentCheck(enabled bool) {
	m.cfg.AlignmentCheck = enabled
}

// AlignmentCheck reports whether SCTLR.A is set.
func (m *MMU) AlignmentCheck() bool {
	return m.cfg.AlignmentCheck
}

// SetTTBR0 sets translation table base register 0.
func (m *MMU) SetTTBR0(v uint32) {
	m.cfg.TTBR0 = v
}

// SetTTBR1 sets translation table base register 1.
func (m *MMU) SetTTBR1(v uint32) {
	m.cfg.TTBR1 = v
}

// SetTTBCR sets the split width N and the walk disables PD0/PD1.
func (m *MMU) SetTTBCR(v uint32) {
	m.cfg.N = uint8(v & 0x7)
	m.cfg.PD0 = v&(1<<4) != 0
	m.cfg.PD1 = v&(1<<5) != 0
}

// SetDACR sets the sixteen domain access policies.
func (m *MMU) SetDACR(v uint32) {
	m.cfg.DACR = v
}

// SetASID sets the current address space identifier.
func (m *MMU) SetASID(asid uint8) {
	m.cfg.ASID = asid
}

// AlignmentFault records an alignment fault for vaddr and returns it.
func (m *MMU) AlignmentFault(vaddr uint32, write bool) error {
	m.record(vaddr, StatusAlignment, domainUnknown, write)
	return faults.Memory(faults.AlignmentFault, faults.LevelNone, vaddr)
}

// ExternalAbort records a synchronous external abort reported by the bus
// for an access to vaddr and returns it.
func (m *MMU) ExternalAbort(vaddr uint32, write bool) error {
	m.record(vaddr, StatusExternalAbort, domainUnknown, write)
	return faults.Memory(faults.ExternalAbort, faults.LevelNone, vaddr)
}

// Translate maps vaddr to a physical address for the given access.
func (m *MMU) Translate(vaddr uint32, access Access) (uint32, error) {
	if !m.cfg.Enabled {
		return vaddr, nil
	}

	l1Addr, disabled := m.firstLevelAddr(vaddr)
	if disabled {
		return 0, m.fault(faults.TranslationFault, faults.LevelSection,
			vaddr, StatusTranslationSection, domainUnknown, access)
	}

	l1, err := m.bus.LoadWord(l1Addr)
	if err != nil {
		return 0, m.fault(faults.ExternalAbort, faults.LevelSection,
			vaddr, StatusWalkAbortSection, domainUnknown, access)
	}

	switch l1 & 0b11 {
	case 0b01:
		return m.walkPageTable(vaddr, l1, access)
	case 0b10:
		return m.translateSection(vaddr, l1, access)
	default:
		return 0, m.fault(faults.TranslationFault, faults.LevelSection,
			vaddr, StatusTranslationSection, domainUnknown, access)
	}
}

// firstLevelAddr selects TTBR0 or TTBR1 by TTBCR.N and returns the
// descriptor address. disabled is set when PD0/PD1 forbids the walk.
func (m *MMU) firstLevelAddr(vaddr uint32) (addr uint32, disabled bool) {
	n := uint32(m.cfg.N)

	if n == 0 || vaddr>>(32-n) == 0 {
		base := m.cfg.TTBR0 & (0xFFFFFFFF << (14 - n))
		index := (vaddr << n) >> (n + 20)
		return base | index<<2, m.cfg.PD0
	}

	base := m.cfg.TTBR1 & 0xFFFFC000
	return base | (vaddr>>20)<<2, m.cfg.PD1
}

func (m *MMU) translateSection(vaddr, desc uint32, access Access) (uint32, error) {
	if desc&(1<<18) != 0 {
		return 0, faults.Newf(faults.NotImplemented,
			"supersection mapping at 0x%08X", vaddr)
	}

	domain := (desc >> 5) & 0xF
	ap := (desc>>15&1)<<2 | (desc>>10)&0b11
	xn := desc&(1<<4) != 0

	err := m.check(vaddr, domain, ap, xn, faults.LevelSection, access)
	if err != nil {
		return 0, err
	}

	return desc&0xFFF00000 | vaddr&0xFFFFF, nil
}

func (m *MMU) walkPageTable(vaddr, l1 uint32, access Access) (uint32, error) {
	domain := (l1 >> 5) & 0xF
	l2Addr := l1&0xFFFFFC00 | ((vaddr>>12)&0xFF)<<2

	l2, err := m.bus.LoadWord(l2Addr)
	if err != nil {
		return 0, m.fault(faults.ExternalAbort, faults.LevelPage,
			vaddr, StatusWalkAbortPage, domain, access)
	}

	switch {
	case l2&0b11 == 0b00:
		return 0, m.fault(faults.TranslationFault, faults.LevelPage,
			vaddr, StatusTranslationPage, domain, access)
	case l2&0b11 == 0b01:
		return 0, faults.Newf(faults.NotImplemented,
			"large page mapping at 0x%08X", vaddr)
	}

	ap := (l2>>9&1)<<2 | (l2>>4)&0b11
	xn := l2&1 != 0

	err = m.check(vaddr, domain, ap, xn, faults.LevelPage, access)
	if err != nil {
		return 0, err
	}

	return l2&0xFFFFF000 | vaddr&0xFFF, nil
}

// check applies the domain policy and, for client domains, the access
// permission and execute-never checks.
func (m *MMU) check(
	vaddr, domain, ap uint32,
	xn bool,
	level faults.Level,
	access Access,
) error {
	domainStatus, permStatus := StatusDomainSection, StatusPermissionSection
	if level == faults.LevelPage {
		domainStatus, permStatus = StatusDomainPage, StatusPermissionPage
	}

	switch (m.cfg.DACR >> (2 * domain)) & 0b11 {
	case 0b11:
		// Manager
		return nil
	case 0b01:
		// Client
	default:
		return m.fault(faults.DomainFault, level, vaddr, domainStatus, domain, access)
	}

	if access.Fetch && xn {
		return m.fault(faults.PermissionFault, level, vaddr, permStatus, domain, access)
	}
	if !permitted(ap, access) {
		return m.fault(faults.PermissionFault, level, vaddr, permStatus, domain, access)
	}
	return nil
}

// permitted evaluates the AP[2]:AP[1:0] table.
func permitted(ap uint32, access Access) bool {
	switch ap {
	case 0b001:
		return !access.User
	case 0b010:
		return !access.User || !access.Write
	case 0b011:
		return true
	case 0b101:
		return !access.User && !access.Write
	case 0b110, 0b111:
		return !access.Write
	default:
		// 000 no access, 100 reserved
		return false
	}
}

func (m *MMU) fault(
	category faults.Category,
	level faults.Level,
	vaddr, status, domain uint32,
	access Access,
) error {
	m.record(vaddr, status, domain, access.Write)
	m.sink.Logf("mmu", "%s (%s) at 0x%08x write=%t user=%t fetch=%t",
		category, level, vaddr, access.Write, access.User, access.Fetch)
	return faults.Memory(category, level, vaddr)
}

func (m *MMU) record(vaddr, status, domain uint32, write bool) {
	if m.recorder == nil {
		return
	}
	if domain != domainUnknown {
		status |= domain << statusDomainShift
	}
	m.recorder.SetMemoryAbort(vaddr, status, write)
}
