package assembler

type hoverInfoFormatsType struct {
	labelDefinition string
	labelReference  string
	integerLiteral  string

	// registers
	zeroRegister         string
	raRegister           string
	spRegister           string
	gpRegister           string
	tpRegister           string
	namedGenericRegister string
	genericRegister      string

	// instructions
	add  string
	sub  string
	xor  string
	or   string
	and  string
	sll  string
	srl  string
	sra  string
	slt  string
	sltu string

	addi  string
	xori  string
	ori   string
	andi  string
	slli  string
	srli  string
	srai  string
	slti  string
	sltiu string

	lb  string
	lh  string
	lw  string
	lbu string
	lhu string

	sb string
	sh string
	sw string

	beq  string
	bne  string
	blt  string
	bge  string
	bltu string
	bgeu string

	jal  string
	jalr string

	auipc string
	lui   string

	ecall  string
	ebreak string
	fence  string

	// pseudo-instructions
	nop  string
	mv   string
	not  string
	neg  string
	li   string
	j    string
	jr   string
	ret  string
	call string
	seqz string
	snez string
	beqz string
	bnez string
}

var hoverInfoFormats = hoverInfoFormatsType{
	labelDefinition: "Definition of label `%s`.\n\nAddress of 0x%X",
	labelReference:  "Reference to label `%s`\n\nEvaluates to `%d`",
	integerLiteral:  "Integer Literal `%d` (`%s`)",

	zeroRegister:         "Zero Register `zero` (`x0`)\n\nAlways evaluates to `0`",
	raRegister:           "Return Address Register `ra` (`x1`)\n\nContains the return address of the current function",
	spRegister:           "Stack Pointer Register `sp` (`x2`)\n\nContains the address of the top of the stack",
	gpRegister:           "Global Pointer Register `gp` (`x3`)\n\nContains the address of the start of the global data segment",
	tpRegister:           "Thread Pointer Register `tp` (`x4`)\n\nContains the address of the thread-local storage segment",
	genericRegister:      "Register `x%d`. 32-Bit General Purpose Register",
	namedGenericRegister: "Register `%s` (`x%d`). 32-Bit General Purpose Register",

	add:  "Addition Instruction.\n\nFormat: `add <dst reg>, <src reg>, <src reg>`\n\nExample: `add x10, x11, x12` is the same as `x10 = x11 + x12`",
	sub:  "Subtraction Instruction.\n\nFormat: `sub <dst reg>, <src reg>, <src reg>`\n\nExample: `sub x10, x11, x12` is the same as `x10 = x11 - x12`",
	xor:  "XOR Instruction.\n\nFormat: `xor <dst reg>, <src reg>, <src reg>`\n\nExample: `xor x10, x11, x12` is the same as `x10 = x11 ^ x12`",
	or:   "OR Instruction.\n\nFormat: `or <dst reg>, <src reg>, <src reg>`\n\nExample: `or x10, x11, x12` is the same as `x10 = x11 | x12`",
	and:  "AND Instruction.\n\nFormat: `and <dst reg>, <src reg>, <src reg>`\n\nExample: `and x10, x11, x12` is the same as `x10 = x11 & x12`",
	sll:  "Shift Left Logical Instruction.\n\nFormat: `sll <dst reg>, <src reg>, <amt reg>`\n\nExample: `sll x10, x11, x12` is the same as `x10 = x11 << x12`",
	srl:  "Shift Right Logical Instruction.\n\nFormat: `srl <dst reg>, <src reg>, <amt reg>`\n\nExample: `srl x10, x11, x12` is the same as `x10 = x11 >> x12`",
	sra:  "Shift Right Arithmetic Instruction.\n\nFormat: `sra <dst reg>, <src reg>, <amt reg>`\n\nExample: `sra x10, x11, x12` is the same as `x10 = x11 >> x12`\n\nNote, however, that this looks the same as `srl`, but the most-significant bit will be copied for each bit shifted.",
	slt:  "Set Less Than Instruction.\n\nFormat: `slt <dst reg>, <src reg>, <src reg>`\n\nExample: `slt x10, x11, x12` is the same as `x10 = x11 < x12`\n\nIf `x11 < x12`, then `x10` will be set to `1`, otherwise it will be set to `0`",
	sltu: "Set Less Than Unsigned Instruction.\n\nFormat: `sltu <dst reg>, <src reg>, <src reg>`\n\nExample: `sltu x10, x11, x12` is the same as `x10 = x11 < x12`\n\nIf `x11 < x12`, then `x10` will be set to `1`, otherwise it will be set to `0`\n\nNote that this is an unsigned comparison.",

	addi:  "Addition Immediate Instruction.\n\nFormat: `addi <dst reg>, <src reg>, <imm>`\n\nExample: `addi x10, x11, 2035` is the same as `x10 = x11 + 2035`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	xori:  "XOR Immediate Instruction.\n\nFormat: `xori <dst reg>, <src reg>, <imm>`\n\nExample: `xori x10, x11, 2035` is the same as `x10 = x11 ^ 2035`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	ori:   "OR Immediate Instruction.\n\nFormat: `ori <dst reg>, <src reg>, <imm>`\n\nExample: `ori x10, x11, 2035` is the same as `x10 = x11 | 2035`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	andi:  "AND Immediate Instruction.\n\nFormat: `andi <dst reg>, <src reg>, <imm>`\n\nExample: `andi x10, x11, 2035` is the same as `x10 = x11 & 2035`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	slli:  "Shift Left Logical Immediate Instruction.\n\nFormat: `slli <dst reg>, <src reg>, <amt>`\n\nExample: `slli x10, x11, 5` is the same as `x10 = x11 << 5`\n\nNote that the immediate is an unsigned 5-bit value, so it must be between 0 and 31.",
	srli:  "Shift Right Logical Immediate Instruction.\n\nFormat: `srli <dst reg>, <src reg>, <amt>`\n\nExample: `srli x10, x11, 5` is the same as `x10 = x11 >> 5`\n\nNote that the immediate is an unsigned 5-bit value, so it must be between 0 and 31.",
	srai:  "Shift Right Arithmetic Immediate Instruction.\n\nFormat: `srai <dst reg>, <src reg>, <amt>`\n\nExample: `srai x10, x11, 5` is the same as `x10 = x11 >> 5`\n\nNote that the immediate is an unsigned 5-bit value, so it must be between 0 and 31.\n\nNote, however, that unlike `srli`, the most-significant bit will be copied for each bit shifted so that the sign is preserved.",
	slti:  "Set Less Than Immediate Instruction.\n\nFormat: `slti <dst reg>, <src reg>, <imm>`\n\nExample: `slti x10, x11, 2035` is the same as `x10 = x11 < 2035`\n\nIf `x11 < 2035`, then `x10` will be set to `1`, otherwise it will be set to `0`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	sltiu: "Set Less Than Unsigned Immediate Instruction.\n\nFormat: `sltiu <dst reg>, <src reg>, <imm>`\n\nExample: `sltiu x10, x11, 2035` is the same as `x10 = x11 < 2035`\n\nIf `x11 < 2035`, then `x10` will be set to `1`, otherwise it will be set to `0`\n\nNote that this is an unsigned comparison.",

	lb:  "Load Byte Instruction.\n\nFormat: `lb <dst reg>, <imm>(<src reg>)`\n\nExample: `lb x10, 2035(x11)` is the same as `x10 = mem[x11 + 2035]`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047. This is a signed operation, so the loaded value **will** be sign extended",
	lh:  "Load Halfword Instruction.\n\nFormat: `lh <dst reg>, <imm>(<src reg>)`\n\nExample: `lh x10, 2035(x11)` is the same as `x10 = mem[x11 + 2035]`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047. This is a signed operation, so the loaded value **will** be sign extended",
	lw:  "Load Word Instruction.\n\nFormat: `lw <dst reg>, <imm>(<src reg>)`\n\nExample: `lw x10, 2035(x11)` is the same as `x10 = mem[x11 + 2035]`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047. This is a signed operation, so the loaded value **will** be sign extended",
	lbu: "Load Byte Unsigned Instruction.\n\nFormat: `lbu <dst reg>, <imm>(<src reg>)`\n\nExample: `lbu x10, 2035(x11)` is the same as `x10 = mem[x11 + 2035]`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047. This is an unsigned operation, so the loaded value **will not** be sign extended",
	lhu: "Load Halfword Unsigned Instruction.\n\nFormat: `lhu <dst reg>, <imm>(<src reg>)`\n\nExample: `lhu x10, 2035(x11)` is the same as `x10 = mem[x11 + 2035]`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047. This is an unsigned operation, so the loaded value **will not** be sign extended",

	sb: "Store Byte Instruction.\n\nFormat: `sb <src reg>, <imm>(<dst reg>)`\n\nExample: `sb x10, 2035(x11)` is the same as `mem[x11 + 2035] = x10`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	sh: "Store Halfword Instruction.\n\nFormat: `sh <src reg>, <imm>(<dst reg>)`\n\nExample: `sh x10, 2035(x11)` is the same as `mem[x11 + 2035] = x10`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",
	sw: "Store Word Instruction.\n\nFormat: `sw <src reg>, <imm>(<dst reg>)`\n\nExample: `sw x10, 2035(x11)` is the same as `mem[x11 + 2035] = x10`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",

	beq:  "Branch Equal Instruction.\n\nFormat: `beq <src reg 1>, <src reg 2>, <imm>`\n\nExample: `beq x10, x11, 40` is the same as `if x10 == x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",
	bne:  "Branch Not Equal Instruction.\n\nFormat: `bne <src reg 1>, <src reg 2>, <imm>`\n\nExample: `bne x10, x11, 40` is the same as `if x10 != x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",
	blt:  "Branch Less Than Instruction.\n\nFormat: `blt <src reg 1>, <src reg 2>, <imm>`\n\nExample: `blt x10, x11, 40` is the same as `if x10 < x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",
	bge:  "Branch Greater Than or Equal Instruction.\n\nFormat: `bge <src reg 1>, <src reg 2>, <imm>`\n\nExample: `bge x10, x11, 40` is the same as `if x10 >= x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",
	bltu: "Branch Less Than Unsigned Instruction.\n\nFormat: `bltu <src reg 1>, <src reg 2>, <imm>`\n\nExample: `bltu x10, x11, 40` is the same as `if x10 < x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",
	bgeu: "Branch Greater Than or Equal Unsigned Instruction.\n\nFormat: `bgeu <src reg 1>, <src reg 2>, <imm>`\n\nExample: `bgeu x10, x11, 40` is the same as `if x10 >= x11 { pc += 40 }`\n\nThe `<imm>` specifies the number of bytes away to branch. It is encoded in 12 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), allowing `<imm>` to range from -4096 to 4094 bytes.\n\nAn instruction label may be used as `<imm>`.",

	jal:  "Jump and Link Instruction.\n\nFormat: `jal <dst reg>, <imm>`\n\nExample: `jal x1, 40` is the same as `x1 = pc + 4; pc += 40`\n\nThe immediate is encoded in 20 bits as `<imm>/2` (a signed offset in multiples of 2 bytes), so the jump target offset range is +/- 1M.\n\nIf `<imm>` is an instruction label, pc = address of labeled instruction.",
	jalr: "Jump and Link Register Instruction.\n\nFormat: `jalr <dst reg>, <src reg>, <imm>` or `jalr <dst reg>, <imm>(<src reg>)`\n\nExample: `jalr x1, x10, 40` is the same as `x1 = pc + 4; pc = x10 + 40`\n\nNote that the immediate is a signed 12-bit value, so it must be between -2048 and 2047.",

	lui:   "Load Upper Immediate Instruction.\n\nFormat: `lui <dst reg>, <imm>`\n\nExample: `lui x10, 0x12345` is the same as `x10 = 0x12345000`\n\nNote that the immediate is a 20-bit value.",
	auipc: "Add Upper Immediate to PC Instruction.\n\nFormat: `auipc <dst reg>, <imm>`\n\nExample: `auipc x10, 0x12345` is the same as `x10 = pc + 0x12345000`\n\nNote that the immediate is a 20-bit value.",

	ecall:  "Environment Call Instruction.\n\nFormat: `ecall`\n\nRequests a service from the execution environment. The service number is read from `a7` and arguments from `a0`-`a6`.",
	ebreak: "Environment Break Instruction.\n\nFormat: `ebreak`\n\nExample: `ebreak` will trigger a breakpoint exception and halt execution.",
	fence:  "Fence Instruction.\n\nFormat: `fence`\n\nOrders memory accesses as seen by other harts. This assembler encodes it with every field except the opcode zero, which is the same word as `ecall`.",

	nop:  "No Operation Pseudo-Instruction.\n\nExpands to `addi x0, x0, 0`.",
	mv:   "Move Pseudo-Instruction.\n\nFormat: `mv <dst reg>, <src reg>`\n\nExpands to `addi <dst reg>, <src reg>, 0`.",
	not:  "Bitwise Not Pseudo-Instruction.\n\nFormat: `not <dst reg>, <src reg>`\n\nExpands to `xori <dst reg>, <src reg>, -1`.",
	neg:  "Negate Pseudo-Instruction.\n\nFormat: `neg <dst reg>, <src reg>`\n\nExpands to `sub <dst reg>, x0, <src reg>`.",
	li:   "Load Immediate Pseudo-Instruction.\n\nFormat: `li <dst reg>, <imm>`\n\nExpands to one `addi` when the immediate fits 12 signed bits, otherwise to a `lui`/`addi` pair.",
	j:    "Jump Pseudo-Instruction.\n\nFormat: `j <label>`\n\nExpands to `jal x0, <label>`.",
	jr:   "Jump Register Pseudo-Instruction.\n\nFormat: `jr <src reg>`\n\nExpands to `jalr x0, 0(<src reg>)`.",
	ret:  "Return Pseudo-Instruction.\n\nFormat: `ret`\n\nExpands to `jalr x0, 0(ra)`.",
	call: "Call Pseudo-Instruction.\n\nFormat: `call <label>`\n\nExpands to `auipc ra, %hi(<label>)` followed by `jalr ra, %lo(<label>)(ra)`, reaching targets beyond the 20-bit `jal` range.",
	seqz: "Set Equal Zero Pseudo-Instruction.\n\nFormat: `seqz <dst reg>, <src reg>`\n\nExpands to `sltiu <dst reg>, <src reg>, 1`.",
	snez: "Set Not Equal Zero Pseudo-Instruction.\n\nFormat: `snez <dst reg>, <src reg>`\n\nExpands to `sltu <dst reg>, x0, <src reg>`.",
	beqz: "Branch Equal Zero Pseudo-Instruction.\n\nFormat: `beqz <src reg>, <label>`\n\nExpands to `beq <src reg>, x0, <label>`.",
	bnez: "Branch Not Equal Zero Pseudo-Instruction.\n\nFormat: `bnez <src reg>, <label>`\n\nExpands to `bne <src reg>, x0, <label>`.",
}
