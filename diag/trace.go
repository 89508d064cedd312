package diag

import (
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/v7sim/insts"
)

// Hook positions invoked by the emulator.
var (
	// HookPosRetire fires after every instruction boundary at which an
	// instruction completed or was skipped by its condition. Item is the
	// insts.Instruction, Detail a Retire.
	HookPosRetire = &sim.HookPos{Name: "Retire"}

	// HookPosException fires on exception entry. Item is the exception
	// name, Detail an Exception.
	HookPosException = &sim.HookPos{Name: "Exception"}
)

// Retire describes a retired instruction.
type Retire struct {
	Addr     uint32
	Mode     uint32
	Executed bool
}

// Exception describes an exception entry.
type Exception struct {
	From   uint32
	Vector uint32
	Return uint32
}

// Tracer writes one line per hook event.
type Tracer struct {
	w io.Writer
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Func implements sim.Hook.
func (t *Tracer) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosRetire:
		inst, ok := ctx.Item.(insts.Instruction)
		detail, ok2 := ctx.Detail.(Retire)
		if !ok || !ok2 {
			return
		}
		mark := ' '
		if !detail.Executed {
			mark = '-'
		}
		_, _ = fmt.Fprintf(t.w, "%08x: %08x %c %-10s mode=%02x\n",
			detail.Addr, inst.Raw, mark, inst.Op, detail.Mode)
	case HookPosException:
		name, _ := ctx.Item.(string)
		detail, ok := ctx.Detail.(Exception)
		if !ok {
			return
		}
		_, _ = fmt.Fprintf(t.w, "%08x: exception %s -> %08x lr=%08x\n",
			detail.From, name, detail.Vector, detail.Return)
	}
}
