package pipeline

import "github.com/sarchlab/iplcsim/insts"

// HazardUnit detects data hazards between the Mem and ALU stages.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectDataHazard reports whether the ALU-stage instruction names the
// register the Mem-stage instruction depends on: the destination of a load
// or the source of a store.
//
// Per ALU-stage kind, the registers compared are:
//   - RType: Reg1, Reg2OrConst, Dest
//   - LoadWord: Dest, Base
//   - StoreWord: Base, Src
//   - Branch: Reg1, Reg2
//
// Jumps, syscalls and nops never cause hazards. Neither does an unnamed
// register (insts.NoReg).
func (h *HazardUnit) DetectDataHazard(mem, alu Slot) bool {
	_, reg, ok := mem.memoryOperand()
	if !ok || !reg.Valid() {
		return false
	}

	switch ops := alu.Ops.(type) {
	case insts.RType:
		return matches(reg, ops.Reg1, ops.Reg2OrConst, ops.Dest)
	case insts.LoadWord:
		return matches(reg, ops.Dest, ops.Base)
	case insts.StoreWord:
		return matches(reg, ops.Base, ops.Src)
	case insts.Branch:
		return matches(reg, ops.Reg1, ops.Reg2)
	default:
		return false
	}
}

func matches(reg insts.Reg, candidates ...insts.Reg) bool {
	for _, c := range candidates {
		if c == reg {
			return true
		}
	}

	return false
}
