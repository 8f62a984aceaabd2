// Package insts provides MIPS trace instruction definitions and decoding.
//
// This package turns lines of a dynamic instruction trace into typed
// instruction records. Each record carries only the operand identifiers the
// timing model needs (register numbers and effective addresses), never data
// values. It supports:
//   - R-type arithmetic: add/addu/addi/addiu, sll, ori, lui
//   - Memory: lw, sw
//   - Control: beq, j, jal, jr
//   - System: syscall, nop
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("400108 lw $8, 0($29) 7fffeff8")
//	fmt.Printf("Kind: %v, Addr: 0x%x\n", inst.Kind(), inst.Address)
package insts

import "fmt"

// Kind identifies which operand variant an instruction carries.
type Kind uint8

// Instruction kinds.
const (
	KindNOP Kind = iota
	KindRType
	KindLoadWord
	KindStoreWord
	KindBranch
	KindJump
	KindSyscall
)

var kindNames = [...]string{
	KindNOP:       "NOP",
	KindRType:     "RTYPE",
	KindLoadWord:  "LW",
	KindStoreWord: "SW",
	KindBranch:    "BRANCH",
	KindJump:      "JUMP",
	KindSyscall:   "SYSCALL",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// Reg is a register identifier. Only the number is tracked, never a value.
type Reg int

// NoReg marks an operand the trace does not name (e.g. the base register of
// lw/sw, or the sources of lui).
const NoReg Reg = -1

// Valid reports whether r names a real register.
func (r Reg) Valid() bool {
	return r >= 0
}

// Operands is the payload of an instruction. The set of implementations is
// closed: RType, LoadWord, StoreWord, Branch, Jump, Syscall and Nop.
type Operands interface {
	Kind() Kind
	isOperands()
}

// RType holds the operands of an arithmetic/logic instruction.
type RType struct {
	Mnemonic    string
	Dest        Reg
	Reg1        Reg
	Reg2OrConst Reg
}

// LoadWord holds the operands of a lw instruction.
type LoadWord struct {
	Dest        Reg
	Base        Reg
	DataAddress uint32
}

// StoreWord holds the operands of a sw instruction.
type StoreWord struct {
	Src         Reg
	Base        Reg
	DataAddress uint32
}

// Branch holds the compared registers of a conditional branch.
type Branch struct {
	Reg1 Reg
	Reg2 Reg
}

// Jump holds an unconditional jump (j, jal, jr).
type Jump struct {
	Mnemonic string
}

// Syscall is a system call. It has no operands.
type Syscall struct{}

// Nop is an explicit no-op from the trace.
type Nop struct{}

// Kind returns KindRType.
func (RType) Kind() Kind { return KindRType }

// Kind returns KindLoadWord.
func (LoadWord) Kind() Kind { return KindLoadWord }

// Kind returns KindStoreWord.
func (StoreWord) Kind() Kind { return KindStoreWord }

// Kind returns KindBranch.
func (Branch) Kind() Kind { return KindBranch }

// Kind returns KindJump.
func (Jump) Kind() Kind { return KindJump }

// Kind returns KindSyscall.
func (Syscall) Kind() Kind { return KindSyscall }

// Kind returns KindNOP.
func (Nop) Kind() Kind { return KindNOP }

func (RType) isOperands()     {}
func (LoadWord) isOperands()  {}
func (StoreWord) isOperands() {}
func (Branch) isOperands()    {}
func (Jump) isOperands()      {}
func (Syscall) isOperands()   {}
func (Nop) isOperands()       {}

// Instruction is a decoded trace record: the fetch address plus operands.
type Instruction struct {
	Address uint32
	Ops     Operands
}

// Kind returns the kind of the instruction. A record without operands is a
// NOP.
func (i Instruction) Kind() Kind {
	if i.Ops == nil {
		return KindNOP
	}

	return i.Ops.Kind()
}

func (i Instruction) String() string {
	return fmt.Sprintf("0x%x %v", i.Address, i.Kind())
}
