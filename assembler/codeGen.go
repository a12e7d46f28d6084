package assembler

// bitSlice extracts bits hi..lo of value, inclusive, shifted down to bit 0.
// Every encoder builds its word from these named slices so the scrambled
// B and J immediate layouts stay auditable field by field.
func bitSlice(value uint32, hi, lo uint) uint32 {
	width := hi - lo + 1
	return (value >> lo) & ((1 << width) - 1)
}

func makeRTypeInstruction(opcode, rd, rs1, rs2, funct7, funct3 uint32) uint32 {
	word := bitSlice(funct7, 6, 0) << 25
	word |= bitSlice(rs2, 4, 0) << 20
	word |= bitSlice(rs1, 4, 0) << 15
	word |= bitSlice(funct3, 2, 0) << 12
	word |= bitSlice(rd, 4, 0) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

func makeITypeInstruction(opcode, rd, rs1, imm, funct3 uint32) uint32 {
	word := bitSlice(imm, 11, 0) << 20
	word |= bitSlice(rs1, 4, 0) << 15
	word |= bitSlice(funct3, 2, 0) << 12
	word |= bitSlice(rd, 4, 0) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

func makeSTypeInstruction(opcode, rs1, rs2, imm, funct3 uint32) uint32 {
	word := bitSlice(imm, 11, 5) << 25
	word |= bitSlice(rs2, 4, 0) << 20
	word |= bitSlice(rs1, 4, 0) << 15
	word |= bitSlice(funct3, 2, 0) << 12
	word |= bitSlice(imm, 4, 0) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

// makeBTypeInstruction takes the byte offset to the target. Bit 0 of the
// offset is never stored; bit 12 lands in bit 31 and bit 11 in bit 7.
func makeBTypeInstruction(opcode, rs1, rs2, imm, funct3 uint32) uint32 {
	word := bitSlice(imm, 12, 12) << 31
	word |= bitSlice(imm, 10, 5) << 25
	word |= bitSlice(rs2, 4, 0) << 20
	word |= bitSlice(rs1, 4, 0) << 15
	word |= bitSlice(funct3, 2, 0) << 12
	word |= bitSlice(imm, 4, 1) << 8
	word |= bitSlice(imm, 11, 11) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

func makeUTypeInstruction(opcode, rd, imm uint32) uint32 {
	word := bitSlice(imm, 19, 0) << 12
	word |= bitSlice(rd, 4, 0) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

// makeJTypeInstruction takes the byte offset to the target. Bit 0 of the
// offset is never stored; the remaining twenty bits land scrambled across
// bits 31..12.
func makeJTypeInstruction(opcode, rd, imm uint32) uint32 {
	word := bitSlice(imm, 20, 20) << 31
	word |= bitSlice(imm, 10, 1) << 21
	word |= bitSlice(imm, 11, 11) << 20
	word |= bitSlice(imm, 19, 12) << 12
	word |= bitSlice(rd, 4, 0) << 7
	word |= bitSlice(opcode, 6, 0)
	return word
}

func DecodeRTypeInstruction(instruction uint32) (opcode, rd, rs1, rs2, funct7, funct3 uint32) {
	opcode = bitSlice(instruction, 6, 0)
	rd = bitSlice(instruction, 11, 7)
	funct3 = bitSlice(instruction, 14, 12)
	rs1 = bitSlice(instruction, 19, 15)
	rs2 = bitSlice(instruction, 24, 20)
	funct7 = bitSlice(instruction, 31, 25)
	return
}

func DecodeITypeInstruction(instruction uint32) (opcode, rd, rs1, imm, funct3 uint32) {
	opcode = bitSlice(instruction, 6, 0)
	rd = bitSlice(instruction, 11, 7)
	funct3 = bitSlice(instruction, 14, 12)
	rs1 = bitSlice(instruction, 19, 15)
	imm = bitSlice(instruction, 31, 20)
	return
}

func DecodeSTypeInstruction(instruction uint32) (opcode, rs1, rs2, imm, funct3 uint32) {
	opcode = bitSlice(instruction, 6, 0)
	funct3 = bitSlice(instruction, 14, 12)
	rs1 = bitSlice(instruction, 19, 15)
	rs2 = bitSlice(instruction, 24, 20)
	imm = bitSlice(instruction, 31, 25)<<5 | bitSlice(instruction, 11, 7)
	return
}

func DecodeBTypeInstruction(instruction uint32) (opcode, rs1, rs2, imm, funct3 uint32) {
	opcode = bitSlice(instruction, 6, 0)
	funct3 = bitSlice(instruction, 14, 12)
	rs1 = bitSlice(instruction, 19, 15)
	rs2 = bitSlice(instruction, 24, 20)
	imm = bitSlice(instruction, 31, 31) << 12
	imm |= bitSlice(instruction, 7, 7) << 11
	imm |= bitSlice(instruction, 30, 25) << 5
	imm |= bitSlice(instruction, 11, 8) << 1
	return
}

func DecodeUTypeInstruction(instruction uint32) (opcode, rd, imm uint32) {
	opcode = bitSlice(instruction, 6, 0)
	rd = bitSlice(instruction, 11, 7)
	imm = bitSlice(instruction, 31, 12)
	return
}

func DecodeJTypeInstruction(instruction uint32) (opcode, rd, imm uint32) {
	opcode = bitSlice(instruction, 6, 0)
	rd = bitSlice(instruction, 11, 7)
	imm = bitSlice(instruction, 31, 31) << 20
	imm |= bitSlice(instruction, 30, 21) << 1
	imm |= bitSlice(instruction, 20, 20) << 11
	imm |= bitSlice(instruction, 19, 12) << 12
	return
}

func GetOpCode(instruction uint32) uint32 {
	return bitSlice(instruction, 6, 0)
}

// opcode conversions
const (
	OPCODE_RTYPE    = 0b0110011
	OPCODE_ITYPE    = 0b0010011
	OPCODE_STYPE    = 0b0100011
	OPCODE_BTYPE    = 0b1100011
	OPCODE_LUI      = 0b0110111
	OPCODE_AUIPC    = 0b0010111
	OPCODE_JAL      = 0b1101111
	OPCODE_JALR     = 0b1100111
	OPCODE_MEMITYPE = 0b0000011
	OPCODE_ENV      = 0b1110011
)
