package pipeline

import "github.com/sarchlab/akita/v4/sim"

// HookPosDataAccess marks a Mem-stage cache access. The item is a
// DataAccessEvent.
var HookPosDataAccess = &sim.HookPos{Name: "PipelineDataAccess"}

// HookPosBranchResolved marks a branch resolved in the Decode stage. The
// item is a BranchEvent.
var HookPosBranchResolved = &sim.HookPos{Name: "PipelineBranchResolved"}

// HookPosCycle marks the end of a pipeline advance. The item is the Stages
// snapshot after the shift.
var HookPosCycle = &sim.HookPos{Name: "PipelineCycle"}

// DataAccessEvent describes a load or store reaching the Mem stage.
type DataAccessEvent struct {
	Address uint32
	Store   bool
	Hit     bool
	Hazard  bool
}

// BranchEvent describes a branch resolution.
type BranchEvent struct {
	Address     uint32
	NextAddress uint32
	Resolution
}
