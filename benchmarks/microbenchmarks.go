package benchmarks

import "github.com/sarchlab/iplcsim/insts"

// Base addresses used by the microbenchmarks. TextBase matches the usual
// MIPS text segment. DataBase maps to set 0x40 with a 1024-set cache, away
// from the sets the benchmark code occupies.
const (
	TextBase uint32 = 0x00400000
	DataBase uint32 = 0x10000100
)

// MIPS register numbers used by the microbenchmarks.
const (
	regT0 insts.Reg = 8
	regT1 insts.Reg = 9
	regT2 insts.Reg = 10
	regS0 insts.Reg = 16
	regS1 insts.Reg = 17
	regSP insts.Reg = 29
	regRA insts.Reg = 31
)

// TraceBuilder assembles a decoded trace. It tracks the program counter so
// a branch or jump decides where the next instruction sits.
type TraceBuilder struct {
	pc    uint32
	trace []insts.Instruction
}

// NewTraceBuilder starts a trace at pc.
func NewTraceBuilder(pc uint32) *TraceBuilder {
	return &TraceBuilder{pc: pc}
}

// PC returns the address of the next instruction.
func (b *TraceBuilder) PC() uint32 {
	return b.pc
}

func (b *TraceBuilder) emit(ops insts.Operands) {
	b.trace = append(b.trace, insts.Instruction{Address: b.pc, Ops: ops})
	b.pc += 4
}

// RType appends an arithmetic instruction.
func (b *TraceBuilder) RType(mnemonic string, dest, reg1, reg2 insts.Reg) *TraceBuilder {
	b.emit(insts.RType{Mnemonic: mnemonic, Dest: dest, Reg1: reg1, Reg2OrConst: reg2})
	return b
}

// Load appends a lw of dataAddr.
func (b *TraceBuilder) Load(dest, base insts.Reg, dataAddr uint32) *TraceBuilder {
	b.emit(insts.LoadWord{Dest: dest, Base: base, DataAddress: dataAddr})
	return b
}

// Store appends a sw to dataAddr.
func (b *TraceBuilder) Store(src, base insts.Reg, dataAddr uint32) *TraceBuilder {
	b.emit(insts.StoreWord{Src: src, Base: base, DataAddress: dataAddr})
	return b
}

// Branch appends a conditional branch. When taken, the next instruction
// is placed at target.
func (b *TraceBuilder) Branch(reg1, reg2 insts.Reg, target uint32, taken bool) *TraceBuilder {
	b.emit(insts.Branch{Reg1: reg1, Reg2: reg2})
	if taken {
		b.pc = target
	}
	return b
}

// Jump appends an unconditional jump to target.
func (b *TraceBuilder) Jump(mnemonic string, target uint32) *TraceBuilder {
	b.emit(insts.Jump{Mnemonic: mnemonic})
	b.pc = target
	return b
}

// Syscall appends a system call.
func (b *TraceBuilder) Syscall() *TraceBuilder {
	b.emit(insts.Syscall{})
	return b
}

// Nop appends an explicit nop.
func (b *TraceBuilder) Nop() *TraceBuilder {
	b.emit(insts.Nop{})
	return b
}

// Build returns the assembled trace.
func (b *TraceBuilder) Build() []insts.Instruction {
	out := make([]insts.Instruction, len(b.trace))
	copy(out, b.trace)
	return out
}

// GetMicrobenchmarks returns all microbenchmarks.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		loadUseLoop(),
		storeStream(),
		branchTakenLoop(),
		branchMixedLoop(),
		setConflict(),
		jumpSyscallMix(),
	}
}

// arithmeticSequential is straight-line code. Every fetch is a cold miss.
func arithmeticSequential() Benchmark {
	b := NewTraceBuilder(TextBase)
	for i := 0; i < 20; i++ {
		b.RType("addu", regT0+insts.Reg(i%8), regS0, regS1)
	}
	b.Syscall()

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ALU ops, cold fetch - measures fetch miss cost",
		Program:     b.Build(),
	}
}

// loadUseLoopIterations is the trip count of the load-use loop.
const loadUseLoopIterations = 8

// loadUseLoop reloads one word and consumes it right away.
func loadUseLoop() Benchmark {
	b := NewTraceBuilder(TextBase)
	for i := 0; i < loadUseLoopIterations; i++ {
		last := i == loadUseLoopIterations-1
		b.Load(regT0, regSP, DataBase).
			RType("add", regT1, regT0, regT0).
			RType("or", regT2, regS0, regS1).
			Branch(regT2, regS0, TextBase, !last)
	}
	b.Syscall()

	return Benchmark{
		Name:        "load_use_loop",
		Description: "8-iteration lw/add loop - measures load-use hazard stalls",
		Program:     b.Build(),
	}
}

// storeStream writes consecutive words inside a loop.
func storeStream() Benchmark {
	b := NewTraceBuilder(TextBase)
	for i := 0; i < 16; i++ {
		b.Store(regT0, regSP, DataBase+uint32(i)*4).
			RType("addi", regSP, regSP, insts.NoReg).
			Branch(regSP, regS0, TextBase, i != 15)
	}
	b.Syscall()

	return Benchmark{
		Name:        "store_stream",
		Description: "16 stores to sequential words - measures data miss cost",
		Program:     b.Build(),
	}
}

// branchTakenLoopIterations is the trip count of the taken-branch loop.
const branchTakenLoopIterations = 10

// branchTakenLoop closes a two-instruction body with a backward branch.
func branchTakenLoop() Benchmark {
	b := NewTraceBuilder(TextBase)
	for i := 0; i < branchTakenLoopIterations; i++ {
		b.RType("addi", regT0, regT0, insts.NoReg).
			RType("slt", regT1, regT0, regS0).
			Branch(regT1, regS1, TextBase, i != branchTakenLoopIterations-1)
	}
	b.Syscall()

	return Benchmark{
		Name:        "branch_taken_loop",
		Description: "10-iteration backward-branch loop - measures static prediction",
		Program:     b.Build(),
	}
}

// branchMixedLoop pairs a forward not-taken branch with a backward taken
// one in each iteration.
func branchMixedLoop() Benchmark {
	b := NewTraceBuilder(TextBase)
	for i := 0; i < 8; i++ {
		b.RType("addi", regT0, regT0, insts.NoReg).
			Branch(regT0, regS0, b.PC()+16, false).
			RType("sub", regT1, regT1, regT0).
			Branch(regT1, regS1, TextBase, i != 7)
	}
	b.Syscall()

	return Benchmark{
		Name:        "branch_mixed_loop",
		Description: "Loop with one not-taken and one taken branch - half of all predictions miss",
		Program:     b.Build(),
	}
}

// SetConflictPairs is the number of lw pairs in the set-conflict benchmark.
const SetConflictPairs = 8

// setConflict alternates loads of two addresses that share a set.
func setConflict() Benchmark {
	other := DataBase + 0x1000

	b := NewTraceBuilder(TextBase)
	for i := 0; i < SetConflictPairs; i++ {
		b.Load(regT0, regSP, DataBase).
			Load(regT1, regSP, other)
	}
	b.Syscall()

	return Benchmark{
		Name:        "set_conflict",
		Description: "Two addresses mapping to one set - thrashes direct-mapped caches",
		Program:     b.Build(),
	}
}

// jumpSyscallMix calls a small function repeatedly.
func jumpSyscallMix() Benchmark {
	const fn = TextBase + 0x100

	b := NewTraceBuilder(TextBase)
	for i := 0; i < 4; i++ {
		ret := b.PC() + 4
		b.Jump("jal", fn).
			RType("addu", regT0, regT0, regS0).
			Nop().
			Jump("jr", ret)
	}
	b.Syscall()

	return Benchmark{
		Name:        "jump_syscall_mix",
		Description: "Repeated jal/jr calls ending in a syscall - measures jump overhead",
		Program:     b.Build(),
	}
}
