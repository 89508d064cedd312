// Package faults defines the error taxonomy shared by the decoder, the
// executor, the MMU and CP15.
//
// A Fault carries a Category that decides how the emulator reacts: emulator
// incompleteness halts the session, architecturally defined conditions are
// delivered to the guest as exceptions.
package faults

import (
	"errors"
	"fmt"
)

// Category classifies a fault.
type Category string

// Fault categories.
const (
	UnknownInstruction     Category = "unknown instruction"
	NotImplemented         Category = "not implemented"
	UndefinedInstruction   Category = "undefined instruction"
	UnpredictableOperation Category = "unpredictable operation"
	SIMDorVFPInstruction   Category = "SIMD or VFP instruction"
	DecodeError            Category = "decode error"
	AlignmentFault         Category = "alignment fault"
	TranslationFault       Category = "translation fault"
	PermissionFault        Category = "permission fault"
	DomainFault            Category = "domain fault"
	ExternalAbort          Category = "external abort"
)

// Level says which translation table level a memory fault came from.
type Level uint8

// Translation levels.
const (
	LevelNone Level = iota
	LevelSection
	LevelPage
)

func (l Level) String() string {
	switch l {
	case LevelSection:
		return "section"
	case LevelPage:
		return "page"
	default:
		return ""
	}
}

// Fault is the error value produced by every layer of the core.
type Fault struct {
	Category Category
	Detail   string

	// Level and Addr are set for memory faults.
	Level Level
	Addr  uint32

	// Value optionally carries the offending operand, for example an
	// invalid mode number.
	Value    uint32
	HasValue bool
}

// Error implements the error interface.
func (f *Fault) Error() string {
	msg := string(f.Category)
	if f.Level != LevelNone {
		msg += " (" + f.Level.String() + ")"
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.IsMemoryAbort() {
		msg += fmt.Sprintf(" at 0x%08X", f.Addr)
	}
	if f.HasValue {
		msg += fmt.Sprintf(" [0x%X]", f.Value)
	}
	return msg
}

// IsMemoryAbort reports whether the fault is delivered to the guest as a
// prefetch or data abort.
func (f *Fault) IsMemoryAbort() bool {
	switch f.Category {
	case AlignmentFault, TranslationFault, PermissionFault,
		DomainFault, ExternalAbort:
		return true
	}
	return false
}

// IsGuestVisible reports whether the guest observes the fault as an
// exception rather than the session halting.
func (f *Fault) IsGuestVisible() bool {
	return f.Category == UndefinedInstruction || f.IsMemoryAbort()
}

// New creates a fault of the given category.
func New(category Category, detail string) *Fault {
	return &Fault{Category: category, Detail: detail}
}

// Newf creates a fault with a formatted detail string.
func Newf(category Category, format string, args ...interface{}) *Fault {
	return &Fault{Category: category, Detail: fmt.Sprintf(format, args...)}
}

// WithValue creates a fault carrying an operand value.
func WithValue(category Category, detail string, value uint32) *Fault {
	return &Fault{Category: category, Detail: detail, Value: value, HasValue: true}
}

// Memory creates a memory fault for the given address.
func Memory(category Category, level Level, addr uint32) *Fault {
	return &Fault{Category: category, Level: level, Addr: addr}
}

// As extracts a Fault from an error chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Is reports whether err carries a fault of the given category.
func Is(err error, category Category) bool {
	f, ok := As(err)
	return ok && f.Category == category
}
