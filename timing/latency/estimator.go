package latency

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/insts"
)

// Statistics holds the estimate of a run.
type Statistics struct {
	Instructions uint64
	Skipped      uint64
	Exceptions   uint64
	Cycles       uint64
}

// CPI returns cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Estimator sums instruction latencies as the emulator retires them. It
// implements sim.Hook.
type Estimator struct {
	table *Table
	stats Statistics
}

// NewEstimator creates an estimator using table.
func NewEstimator(table *Table) *Estimator {
	return &Estimator{table: table}
}

// Func implements sim.Hook.
func (e *Estimator) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case diag.HookPosRetire:
		inst, ok := ctx.Item.(insts.Instruction)
		if !ok {
			return
		}
		e.stats.Instructions++
		if detail, ok := ctx.Detail.(diag.Retire); ok && !detail.Executed {
			// Condition failed: the instruction still occupies an issue slot.
			e.stats.Skipped++
			e.stats.Cycles++
			return
		}
		e.stats.Cycles += e.table.GetLatency(&inst)
	case diag.HookPosException:
		e.stats.Exceptions++
		e.stats.Cycles += e.table.config.ExceptionLatency
	}
}

// Stats returns the estimate so far.
func (e *Estimator) Stats() Statistics {
	return e.stats
}

// Reset clears the estimate.
func (e *Estimator) Reset() {
	e.stats = Statistics{}
}
