package assembler

// InstructionFormat classifies every RV32I mnemonic into one of the six
// encoding formats plus the SYSTEM group (ecall, ebreak, fence).
type InstructionFormat int

const (
	FormatR InstructionFormat = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatSys
)

var instructionFormats = map[string]InstructionFormat{
	"add":  FormatR,
	"sub":  FormatR,
	"sll":  FormatR,
	"slt":  FormatR,
	"sltu": FormatR,
	"xor":  FormatR,
	"srl":  FormatR,
	"sra":  FormatR,
	"or":   FormatR,
	"and":  FormatR,

	"addi":  FormatI,
	"slti":  FormatI,
	"sltiu": FormatI,
	"xori":  FormatI,
	"ori":   FormatI,
	"andi":  FormatI,
	"slli":  FormatI,
	"srli":  FormatI,
	"srai":  FormatI,
	"lb":    FormatI,
	"lh":    FormatI,
	"lw":    FormatI,
	"lbu":   FormatI,
	"lhu":   FormatI,
	"jalr":  FormatI,

	"sb": FormatS,
	"sh": FormatS,
	"sw": FormatS,

	"beq":  FormatB,
	"bne":  FormatB,
	"blt":  FormatB,
	"bge":  FormatB,
	"bltu": FormatB,
	"bgeu": FormatB,

	"lui":   FormatU,
	"auipc": FormatU,

	"jal": FormatJ,

	"ecall":  FormatSys,
	"ebreak": FormatSys,
	"fence":  FormatSys,
}

var funct3Values = map[string]uint32{
	"add":  0b000,
	"sub":  0b000,
	"sll":  0b001,
	"slt":  0b010,
	"sltu": 0b011,
	"xor":  0b100,
	"srl":  0b101,
	"sra":  0b101,
	"or":   0b110,
	"and":  0b111,

	"addi":  0b000,
	"slti":  0b010,
	"sltiu": 0b011,
	"xori":  0b100,
	"ori":   0b110,
	"andi":  0b111,
	"slli":  0b001,
	"srli":  0b101,
	"srai":  0b101,

	"lb":  0b000,
	"lh":  0b001,
	"lw":  0b010,
	"lbu": 0b100,
	"lhu": 0b101,

	"jalr": 0b000,

	"sb": 0b000,
	"sh": 0b001,
	"sw": 0b010,

	"beq":  0b000,
	"bne":  0b001,
	"blt":  0b100,
	"bge":  0b101,
	"bltu": 0b110,
	"bgeu": 0b111,
}

// Only sub, sra, and srai deviate from the all-zero funct7; everything else
// falls through to the zero value of the map lookup.
var funct7Values = map[string]uint32{
	"sub":  0b0100000,
	"sra":  0b0100000,
	"srai": 0b0100000,
}

var loadMnemonics = map[string]bool{
	"lb":  true,
	"lh":  true,
	"lw":  true,
	"lbu": true,
	"lhu": true,
}

var shiftImmediateMnemonics = map[string]bool{
	"slli": true,
	"srli": true,
	"srai": true,
}

// opcodeForMnemonic resolves the 7-bit opcode. The format tag alone is not
// enough: addi, the loads, and jalr all share the I format but carry three
// different opcodes, and lui/auipc split the U format the same way.
func opcodeForMnemonic(mnemonic string) uint32 {
	switch instructionFormats[mnemonic] {
	case FormatR:
		return OPCODE_RTYPE
	case FormatI:
		if loadMnemonics[mnemonic] {
			return OPCODE_MEMITYPE
		}
		if mnemonic == "jalr" {
			return OPCODE_JALR
		}
		return OPCODE_ITYPE
	case FormatS:
		return OPCODE_STYPE
	case FormatB:
		return OPCODE_BTYPE
	case FormatU:
		if mnemonic == "auipc" {
			return OPCODE_AUIPC
		}
		return OPCODE_LUI
	case FormatJ:
		return OPCODE_JAL
	default:
		return OPCODE_ENV
	}
}

// RegisterNameMap maps both the numeric x0..x31 names and the ABI aliases
// onto register indices. s0 and fp are the same register.
var RegisterNameMap = map[string]uint32{
	"x0": 0, "x1": 1, "x2": 2, "x3": 3, "x4": 4, "x5": 5, "x6": 6, "x7": 7,
	"x8": 8, "x9": 9, "x10": 10, "x11": 11, "x12": 12, "x13": 13, "x14": 14, "x15": 15,
	"x16": 16, "x17": 17, "x18": 18, "x19": 19, "x20": 20, "x21": 21, "x22": 22, "x23": 23,
	"x24": 24, "x25": 25, "x26": 26, "x27": 27, "x28": 28, "x29": 29, "x30": 30, "x31": 31,

	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25,
	"s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// RegisterIndexToName gives the canonical ABI name for each register index,
// used when rendering the web shell's emulator register dump.
var RegisterIndexToName = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}
