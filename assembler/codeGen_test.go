package assembler

import "testing"

func TestRTypeRoundTrip(t *testing.T) {
	word := makeRTypeInstruction(OPCODE_RTYPE, 3, 1, 2, 0b0100000, 0)
	opcode, rd, rs1, rs2, funct7, funct3 := DecodeRTypeInstruction(word)
	if opcode != OPCODE_RTYPE || rd != 3 || rs1 != 1 || rs2 != 2 || funct7 != 0b0100000 || funct3 != 0 {
		t.Errorf("Decoded fields do not match: 0x%08x", word)
	}
}

func TestITypeRoundTrip(t *testing.T) {
	negFive := int32(-5)
	word := makeITypeInstruction(OPCODE_ITYPE, 1, 2, uint32(negFive)&0xFFF, 0)
	opcode, rd, rs1, imm, funct3 := DecodeITypeInstruction(word)
	if opcode != OPCODE_ITYPE || rd != 1 || rs1 != 2 || funct3 != 0 {
		t.Errorf("Decoded fields do not match: 0x%08x", word)
	}
	if imm != 0xFFB {
		t.Errorf("Expected immediate field 0xffb, got 0x%03x", imm)
	}
}

func TestSTypeRoundTrip(t *testing.T) {
	word := makeSTypeInstruction(OPCODE_STYPE, 2, 1, 0x7FF, 0b010)
	opcode, rs1, rs2, imm, funct3 := DecodeSTypeInstruction(word)
	if opcode != OPCODE_STYPE || rs1 != 2 || rs2 != 1 || imm != 0x7FF || funct3 != 0b010 {
		t.Errorf("Decoded fields do not match: 0x%08x", word)
	}
}

func TestBTypeImmediateScramble(t *testing.T) {
	// beq x1, x2, -8
	negEight := int32(-8)
	word := makeBTypeInstruction(OPCODE_BTYPE, 1, 2, uint32(negEight), 0)
	if word != 0xfe208ce3 {
		t.Errorf("Expected 0xfe208ce3, got 0x%08x", word)
	}

	_, rs1, rs2, imm, _ := DecodeBTypeInstruction(word)
	if rs1 != 1 || rs2 != 2 {
		t.Errorf("Decoded registers do not match: 0x%08x", word)
	}
	// decoded immediate is the 13-bit field, sign bit at bit 12
	if imm != 0x1FF8 {
		t.Errorf("Expected immediate field 0x1ff8, got 0x%04x", imm)
	}
}

func TestJTypeImmediateScramble(t *testing.T) {
	word := makeJTypeInstruction(OPCODE_JAL, 1, 8)
	if word != 0x008000ef {
		t.Errorf("Expected 0x008000ef, got 0x%08x", word)
	}

	_, rd, imm := DecodeJTypeInstruction(word)
	if rd != 1 || imm != 8 {
		t.Errorf("Decoded fields do not match: 0x%08x", word)
	}
}

func TestUTypeRoundTrip(t *testing.T) {
	word := makeUTypeInstruction(OPCODE_LUI, 2, 0x10000)
	if word != 0x10000137 {
		t.Errorf("Expected 0x10000137, got 0x%08x", word)
	}

	opcode, rd, imm := DecodeUTypeInstruction(word)
	if opcode != OPCODE_LUI || rd != 2 || imm != 0x10000 {
		t.Errorf("Decoded fields do not match: 0x%08x", word)
	}
}

func TestExpansionLengthMatchesExpansion(t *testing.T) {
	cases := []struct {
		mnemonic string
		operands []string
	}{
		{"nop", nil},
		{"li", []string{"x5", "1234"}},
		{"li", []string{"x5", "0x12345"}},
		{"call", []string{"somewhere"}},
		{"add", []string{"x1", "x2", "x3"}},
		{"beqz", []string{"x1", "somewhere"}},
	}

	for _, c := range cases {
		expanded := expandPseudo(c.mnemonic, c.operands)
		if len(expanded) != expansionLength(c.mnemonic, c.operands) {
			t.Errorf("Expansion length mismatch for %s: expected %d, got %d",
				c.mnemonic, expansionLength(c.mnemonic, c.operands), len(expanded))
		}
	}
}
