package pipeline

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/iplcsim/insts"
	"github.com/sarchlab/iplcsim/timing/latency"
)

// DataCache is the cache the Mem stage consults for loads and stores.
type DataCache interface {
	// Access looks up addr and returns true on a hit.
	Access(addr uint32) bool
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired.
	Instructions uint64 `json:"instructions"`
	// Branches is the number of branches seen in the Decode stage.
	Branches uint64 `json:"branches"`
	// CorrectPredictions is the number of correctly predicted branches.
	CorrectPredictions uint64 `json:"correct_predictions"`
	// Mispredictions is the number of mispredicted branches.
	Mispredictions uint64 `json:"mispredictions"`
	// HazardStalls is the number of cycles stalled on data hazards.
	HazardStalls uint64 `json:"hazard_stalls"`
	// MemStallCycles is the number of cycles added by data cache misses.
	MemStallCycles uint64 `json:"mem_stall_cycles"`
	// FetchStallCycles is the number of advances spent waiting on
	// instruction fetch misses.
	FetchStallCycles uint64 `json:"fetch_stall_cycles"`
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PredictionAccuracy returns the share of scored branches that were
// predicted correctly, as a percentage.
func (s Statistics) PredictionAccuracy() float64 {
	scored := s.CorrectPredictions + s.Mispredictions
	if scored == 0 {
		return 0
	}
	return float64(s.CorrectPredictions) / float64(scored) * 100
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithPredictTaken sets the static branch prediction direction.
func WithPredictTaken(taken bool) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = NewStaticPredictor(taken)
	}
}

// WithTimingConfig sets the cycle penalties.
func WithTimingConfig(config *latency.TimingConfig) PipelineOption {
	return func(p *Pipeline) {
		p.timing = config
	}
}

// Pipeline implements a 5-stage in-order pipeline timing model.
// Stages: Fetch -> Decode -> ALU -> Mem -> Writeback
//
// Instructions enter through the insert operations, each of which advances
// the pipeline one cycle and places the instruction in the Fetch stage.
// The pipeline tracks only register identifiers and addresses, never data
// values.
type Pipeline struct {
	*sim.HookableBase

	stages Stages

	dcache     DataCache
	hazardUnit *HazardUnit
	predictor  *StaticPredictor
	timing     *latency.TimingConfig

	// fetchAddress tags the next inserted instruction.
	fetchAddress uint32

	stats Statistics
}

// NewPipeline creates a new 5-stage pipeline with every stage empty. By
// default branches are predicted not taken and the default timing applies.
func NewPipeline(dcache DataCache, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		HookableBase: sim.NewHookableBase(),
		dcache:       dcache,
		hazardUnit:   NewHazardUnit(),
		predictor:    NewStaticPredictor(false),
		timing:       latency.DefaultTimingConfig(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Stages returns a snapshot of all stages.
func (p *Pipeline) Stages() Stages {
	return p.stages
}

// Stage returns the slot in stage s.
func (p *Pipeline) Stage(s Stage) Slot {
	return p.stages[s]
}

// Empty returns true if every stage holds a NOP.
func (p *Pipeline) Empty() bool {
	return p.stages.Empty()
}

// PredictTaken returns the static prediction direction.
func (p *Pipeline) PredictTaken() bool {
	return p.predictor.PredictTaken
}

// TimingConfig returns the cycle penalties in use.
func (p *Pipeline) TimingConfig() *latency.TimingConfig {
	return p.timing
}

// SetFetchAddress sets the address that tags the next inserted instruction.
func (p *Pipeline) SetFetchAddress(addr uint32) {
	p.fetchAddress = addr
}

// FetchAddress returns the address that tags the next inserted instruction.
func (p *Pipeline) FetchAddress() uint32 {
	return p.fetchAddress
}

// Reset empties every stage and clears the statistics.
func (p *Pipeline) Reset() {
	p.stages = Stages{}
	p.fetchAddress = 0
	p.stats = Statistics{}
}

// Advance executes one pipeline cycle.
//
// In order, it:
//  1. retires the Writeback instruction
//  2. resolves a branch sitting in Decode, paying one cycle and squashing
//     Decode on a misprediction
//  3. sends a Mem-stage load or store to the data cache, charging a hazard
//     stall on a hit or the miss penalty on a miss
//  4. charges the base cycle
//  5. shifts every stage forward and empties Fetch
//
// A miss is charged as a flat cycle count. The other stages do not replay
// during the miss cycles.
func (p *Pipeline) Advance() {
	p.retire()
	p.resolveBranch()
	p.accessMemory()

	p.stats.Cycles++

	p.stages[StageWriteback] = p.stages[StageMem]
	p.stages[StageMem] = p.stages[StageALU]
	p.stages[StageALU] = p.stages[StageDecode]
	p.stages[StageDecode] = p.stages[StageFetch]
	p.stages[StageFetch] = Slot{}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosCycle,
		Item:   p.stages,
	})
}

// Drain advances until every stage holds a NOP. Draining an empty pipeline
// does nothing.
func (p *Pipeline) Drain() {
	for !p.Empty() {
		p.Advance()
	}
}

// StallFetch advances the pipeline n times without inserting, modeling an
// instruction fetch that missed in the cache.
func (p *Pipeline) StallFetch(n uint64) {
	for i := uint64(0); i < n; i++ {
		p.Advance()
		p.stats.FetchStallCycles++
	}
}

// Insert advances the pipeline once and places ops in the Fetch stage,
// tagged with the current fetch address. A nil ops inserts a nop.
func (p *Pipeline) Insert(ops insts.Operands) {
	if ops == nil {
		ops = insts.Nop{}
	}

	p.Advance()
	p.stages[StageFetch] = Slot{Address: p.fetchAddress, Ops: ops}
}

// InsertRType inserts an arithmetic instruction.
func (p *Pipeline) InsertRType(mnemonic string, dest, reg1, reg2OrConst insts.Reg) {
	p.Insert(insts.RType{
		Mnemonic:    mnemonic,
		Dest:        dest,
		Reg1:        reg1,
		Reg2OrConst: reg2OrConst,
	})
}

// InsertLoadWord inserts a load.
func (p *Pipeline) InsertLoadWord(dest, base insts.Reg, dataAddr uint32) {
	p.Insert(insts.LoadWord{Dest: dest, Base: base, DataAddress: dataAddr})
}

// InsertStoreWord inserts a store.
func (p *Pipeline) InsertStoreWord(src, base insts.Reg, dataAddr uint32) {
	p.Insert(insts.StoreWord{Src: src, Base: base, DataAddress: dataAddr})
}

// InsertBranch inserts a conditional branch.
func (p *Pipeline) InsertBranch(reg1, reg2 insts.Reg) {
	p.Insert(insts.Branch{Reg1: reg1, Reg2: reg2})
}

// InsertJump inserts an unconditional jump.
func (p *Pipeline) InsertJump(mnemonic string) {
	p.Insert(insts.Jump{Mnemonic: mnemonic})
}

// InsertSyscall inserts a system call.
func (p *Pipeline) InsertSyscall() {
	p.Insert(insts.Syscall{})
}

// InsertNop inserts an explicit nop.
func (p *Pipeline) InsertNop() {
	p.Insert(insts.Nop{})
}

func (p *Pipeline) retire() {
	if p.stages[StageWriteback].Retirable() {
		p.stats.Instructions++
	}
}

func (p *Pipeline) resolveBranch() {
	branch := p.stages[StageDecode]
	if branch.Kind() != insts.KindBranch {
		return
	}

	p.stats.Branches++

	next := p.stages[StageFetch]
	res := p.predictor.Resolve(branch, next)

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosBranchResolved,
		Item: BranchEvent{
			Address:     branch.Address,
			NextAddress: next.Address,
			Resolution:  res,
		},
	})

	if !res.Evaluated {
		return
	}

	if res.Correct {
		p.stats.CorrectPredictions++
		return
	}

	// Misprediction: one extra cycle moves the back of the pipeline along
	// while Fetch holds, then the wrong-path Decode slot is squashed.
	p.stats.Mispredictions++
	p.stats.Cycles++

	p.stages[StageWriteback] = p.stages[StageMem]
	p.stages[StageMem] = p.stages[StageALU]
	p.stages[StageALU] = p.stages[StageDecode]
	p.retire()

	p.stages[StageDecode] = Slot{}
}

func (p *Pipeline) accessMemory() {
	mem := p.stages[StageMem]

	addr, _, ok := mem.memoryOperand()
	if !ok {
		return
	}

	hit := p.dcache.Access(addr)
	hazard := false

	if hit {
		hazard = p.hazardUnit.DetectDataHazard(mem, p.stages[StageALU])
		if hazard {
			p.stats.Cycles += p.timing.HazardStallCycles
			p.stats.HazardStalls += p.timing.HazardStallCycles
		}
	} else {
		penalty := p.timing.MissPenalty()
		p.stats.Cycles += penalty
		p.stats.MemStallCycles += penalty
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosDataAccess,
		Item: DataAccessEvent{
			Address: addr,
			Store:   mem.Kind() == insts.KindStoreWord,
			Hit:     hit,
			Hazard:  hazard,
		},
	})
}
