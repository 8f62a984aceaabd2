// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/iplcsim/insts"
)

// Stage names one of the fixed pipeline positions.
type Stage int

// Pipeline stages, in program order.
const (
	StageFetch Stage = iota
	StageDecode
	StageALU
	StageMem
	StageWriteback

	// NumStages is the number of pipeline stages.
	NumStages = 5
)

var stageNames = [NumStages]string{
	StageFetch:     "FETCH",
	StageDecode:    "DECODE",
	StageALU:       "ALU",
	StageMem:       "MEM",
	StageWriteback: "WB",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < NumStages {
		return stageNames[s]
	}

	return fmt.Sprintf("Stage(%d)", int(s))
}

// Slot holds the instruction occupying one stage. The zero value is a NOP
// bubble.
type Slot struct {
	// Address is the fetch address of the instruction.
	Address uint32

	// Ops carries the operand identifiers of the instruction.
	Ops insts.Operands
}

// Kind returns the instruction kind held in the slot.
func (s Slot) Kind() insts.Kind {
	if s.Ops == nil {
		return insts.KindNOP
	}

	return s.Ops.Kind()
}

// IsNOP reports whether the slot holds a bubble or an explicit nop.
func (s Slot) IsNOP() bool {
	return s.Kind() == insts.KindNOP
}

// Fetched reports whether an instruction was actually fetched into the slot.
// Explicit nops from the trace count as fetched.
func (s Slot) Fetched() bool {
	return s.Address != 0
}

// Retirable reports whether the slot counts as a retired instruction when
// it leaves the Writeback stage.
func (s Slot) Retirable() bool {
	return !s.IsNOP() && s.Address != 0
}

// memoryOperand returns the data address and the register the Mem stage
// checks for hazards. ok is false for non-memory instructions.
func (s Slot) memoryOperand() (addr uint32, reg insts.Reg, ok bool) {
	switch ops := s.Ops.(type) {
	case insts.LoadWord:
		return ops.DataAddress, ops.Dest, true
	case insts.StoreWord:
		return ops.DataAddress, ops.Src, true
	default:
		return 0, insts.NoReg, false
	}
}

func (s Slot) String() string {
	return fmt.Sprintf("%v: 0x%x", s.Kind(), s.Address)
}

// Stages is a snapshot of every stage, indexed by Stage.
type Stages [NumStages]Slot

// Empty reports whether every stage holds a NOP.
func (s Stages) Empty() bool {
	for _, slot := range s {
		if !slot.IsNOP() {
			return false
		}
	}

	return true
}
