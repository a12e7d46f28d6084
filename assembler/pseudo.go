package assembler

import (
	"strconv"
)

// An expandedInstruction is one concrete RV32I instruction produced by pseudo
// expansion. Operands are kept as source text so the normal operand
// evaluation path applies to synthesized instructions too.
type expandedInstruction struct {
	mnemonic string
	operands []string
}

func real(mnemonic string, operands ...string) expandedInstruction {
	return expandedInstruction{mnemonic: mnemonic, operands: operands}
}

// expandPseudo maps a (mnemonic, operands) pair onto the one or two real
// instructions it stands for. Non-pseudo mnemonics pass through unchanged, as
// do pseudos with the wrong operand count so the encoder can report them.
//
// Both passes call this through expansionLength and generateCode; the
// decision logic must never diverge between them, otherwise label addresses
// recorded in pass one stop matching the words emitted in pass two.
func expandPseudo(mnemonic string, operands []string) []expandedInstruction {
	switch mnemonic {
	case "nop":
		if len(operands) == 0 {
			return []expandedInstruction{real("addi", "x0", "x0", "0")}
		}
	case "mv":
		if len(operands) == 2 {
			return []expandedInstruction{real("addi", operands[0], operands[1], "0")}
		}
	case "not":
		if len(operands) == 2 {
			return []expandedInstruction{real("xori", operands[0], operands[1], "-1")}
		}
	case "neg":
		if len(operands) == 2 {
			return []expandedInstruction{real("sub", operands[0], "x0", operands[1])}
		}
	case "seqz":
		if len(operands) == 2 {
			return []expandedInstruction{real("sltiu", operands[0], operands[1], "1")}
		}
	case "snez":
		if len(operands) == 2 {
			return []expandedInstruction{real("sltu", operands[0], "x0", operands[1])}
		}
	case "sltz":
		if len(operands) == 2 {
			return []expandedInstruction{real("slt", operands[0], operands[1], "x0")}
		}
	case "sgtz":
		if len(operands) == 2 {
			return []expandedInstruction{real("slt", operands[0], "x0", operands[1])}
		}
	case "j":
		if len(operands) == 1 {
			return []expandedInstruction{real("jal", "x0", operands[0])}
		}
	case "jal":
		if len(operands) == 1 {
			return []expandedInstruction{real("jal", "ra", operands[0])}
		}
	case "jr":
		if len(operands) == 1 {
			return []expandedInstruction{real("jalr", "x0", "0("+operands[0]+")")}
		}
	case "jalr":
		if len(operands) == 1 {
			return []expandedInstruction{real("jalr", "ra", "0("+operands[0]+")")}
		}
	case "ret":
		if len(operands) == 0 {
			return []expandedInstruction{real("jalr", "x0", "0(ra)")}
		}
	case "call":
		if len(operands) == 1 {
			label := operands[0]
			return []expandedInstruction{
				real("auipc", "ra", "%hi("+label+")"),
				real("jalr", "ra", "%lo("+label+")(ra)"),
			}
		}
	case "beqz", "bnez", "bltz", "bgez":
		if len(operands) == 2 {
			base := map[string]string{"beqz": "beq", "bnez": "bne", "bltz": "blt", "bgez": "bge"}[mnemonic]
			return []expandedInstruction{real(base, operands[0], "x0", operands[1])}
		}
	case "blez":
		if len(operands) == 2 {
			return []expandedInstruction{real("bge", "x0", operands[0], operands[1])}
		}
	case "bgtz":
		if len(operands) == 2 {
			return []expandedInstruction{real("blt", "x0", operands[0], operands[1])}
		}
	case "bgt", "ble", "bgtu", "bleu":
		// Operand swap onto the base comparison with the arguments reversed.
		if len(operands) == 3 {
			base := map[string]string{"bgt": "blt", "ble": "bge", "bgtu": "bltu", "bleu": "bgeu"}[mnemonic]
			return []expandedInstruction{real(base, operands[1], operands[0], operands[2])}
		}
	case "li":
		if len(operands) == 2 {
			return expandLoadImmediate(operands[0], operands[1])
		}
	}

	return []expandedInstruction{{mnemonic: mnemonic, operands: operands}}
}

// expandLoadImmediate implements the li length contract: one addi when the
// immediate fits 12 signed bits, otherwise exactly lui+addi. The high part is
// rounded with +0x800 so the sign-extended low part corrects it back to the
// requested value. A non-numeric operand is treated as a label and becomes a
// PC-relative auipc+addi pair.
func expandLoadImmediate(rd string, immediate string) []expandedInstruction {
	value, err := strconv.ParseInt(immediate, 0, 64)
	if err != nil {
		return []expandedInstruction{
			real("auipc", rd, "%hi("+immediate+")"),
			real("addi", rd, rd, "%lo("+immediate+")"),
		}
	}

	if value >= -2048 && value <= 2047 {
		return []expandedInstruction{real("addi", rd, "x0", strconv.FormatInt(value, 10))}
	}

	hi20 := (value + 0x800) >> 12
	lo12 := value - (hi20 << 12)
	return []expandedInstruction{
		real("lui", rd, strconv.FormatInt(hi20&0xFFFFF, 10)),
		real("addi", rd, rd, strconv.FormatInt(lo12, 10)),
	}
}

// expansionLength is what pass one uses to advance the program counter.
// Delegating to expandPseudo keeps the length decision in one place.
func expansionLength(mnemonic string, operands []string) int {
	return len(expandPseudo(mnemonic, operands))
}
