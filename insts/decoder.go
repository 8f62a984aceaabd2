package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedInputError reports a trace line that cannot be decoded.
type MalformedInputError struct {
	// Line is the 1-based line number, or 0 when unknown.
	Line int
	// Text is the offending line.
	Text string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed instruction at line %d (%q): %s",
			e.Line, e.Text, e.Reason)
	}

	return fmt.Sprintf("malformed instruction (%q): %s", e.Text, e.Reason)
}

// Decoder decodes trace lines into instructions.
type Decoder struct{}

// NewDecoder creates a new trace line decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one trace line of the form
//
//	<hex address> <mnemonic> <operands...>
//
// Mnemonics are matched by prefix in a fixed order, so "addiu" decodes as
// an R-type and "jal"/"jr" decode as jumps.
func (d *Decoder) Decode(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Instruction{}, d.malformed(line, "expected address and mnemonic")
	}

	addr, err := parseHex(fields[0])
	if err != nil {
		return Instruction{}, d.malformed(line, "bad instruction address "+fields[0])
	}

	inst := Instruction{Address: addr}
	mnemonic := fields[1]

	switch {
	case hasAnyPrefix(mnemonic, "add", "sll", "ori"):
		inst.Ops, err = d.decodeRType(line, mnemonic, fields)
	case strings.HasPrefix(mnemonic, "lui"):
		inst.Ops, err = d.decodeLUI(line, mnemonic, fields)
	case hasAnyPrefix(mnemonic, "lw", "sw"):
		inst.Ops, err = d.decodeMemory(line, mnemonic, fields)
	case strings.HasPrefix(mnemonic, "beq"):
		// Branch operands are not tracked by the trace format.
		inst.Ops = Branch{Reg1: NoReg, Reg2: NoReg}
	case hasAnyPrefix(mnemonic, "jal", "jr", "j"):
		inst.Ops = Jump{Mnemonic: mnemonic}
	case strings.HasPrefix(mnemonic, "syscall"):
		inst.Ops = Syscall{}
	case strings.HasPrefix(mnemonic, "nop"):
		inst.Ops = Nop{}
	default:
		err = d.malformed(line, "do not know how to process instruction "+mnemonic)
	}

	if err != nil {
		return Instruction{}, err
	}

	return inst, nil
}

// decodeRType decodes "addr op dest, src1, src2".
func (d *Decoder) decodeRType(
	line, mnemonic string,
	fields []string,
) (Operands, error) {
	if len(fields) < 5 {
		return nil, d.malformed(line, "malformed RTYPE instruction "+mnemonic)
	}

	return RType{
		Mnemonic:    mnemonic,
		Dest:        ParseReg(fields[2]),
		Reg1:        ParseReg(fields[3]),
		Reg2OrConst: ParseReg(fields[4]),
	}, nil
}

// decodeLUI decodes "addr lui dest, const". lui reads no source registers.
func (d *Decoder) decodeLUI(
	line, mnemonic string,
	fields []string,
) (Operands, error) {
	if len(fields) < 4 {
		return nil, d.malformed(line, "malformed RTYPE instruction "+mnemonic)
	}

	return RType{
		Mnemonic:    mnemonic,
		Dest:        ParseReg(fields[2]),
		Reg1:        NoReg,
		Reg2OrConst: NoReg,
	}, nil
}

// decodeMemory decodes "addr lw|sw reg, offset(base) dataaddr". The base
// register is not tracked.
func (d *Decoder) decodeMemory(
	line, mnemonic string,
	fields []string,
) (Operands, error) {
	if len(fields) < 5 {
		return nil, d.malformed(line, "bad instruction "+mnemonic)
	}

	dataAddr, err := parseHex(fields[4])
	if err != nil {
		return nil, d.malformed(line, "bad data address "+fields[4])
	}

	reg := ParseReg(fields[2])
	if strings.HasPrefix(mnemonic, "lw") {
		return LoadWord{Dest: reg, Base: NoReg, DataAddress: dataAddr}, nil
	}

	return StoreWord{Src: reg, Base: NoReg, DataAddress: dataAddr}, nil
}

func (d *Decoder) malformed(line, reason string) *MalformedInputError {
	return &MalformedInputError{
		Text:   strings.TrimSpace(line),
		Reason: reason,
	}
}

// ParseReg parses a register operand such as "$8," or "12". A trailing comma
// and a leading '$' are ignored. Like C's atoi, it reads the leading decimal
// digits and yields 0 when there are none.
func ParseReg(s string) Reg {
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimPrefix(s, "$")

	end := 0
	if end < len(s) && (s[0] == '-' || s[0] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}

	return Reg(n)
}

func parseHex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}

	return uint32(v), nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
