package emulator

import (
	"strconv"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

// returnSentinel is placed in ra before the run starts. A jump to it means
// the program returned from its entry routine, which ends the run the same
// way an exit ecall does.
const returnSentinel = 0x20352035

func (inst *EmulatorInstance) regRead(reg uint32) uint32 {
	// checking if the register is valid
	if inst.regInit&(1<<reg) == 0 {
		inst.newRegisterAccessedBeforeInitializedException(reg)
		return 0
	}

	return inst.registers[reg]
}

func (inst *EmulatorInstance) regWrite(reg uint32, value uint32) {
	// setting valid bit
	inst.regInit |= 1 << reg

	if reg == 0 {
		// x0 is read-only
		inst.newIllegalRegisterWrite()
		return
	}

	// writing value
	inst.registers[reg] = value
}

func (inst *EmulatorInstance) Emulate(startAddr uint32) {
	// using the state of the registers already in the instance
	// this makes it possible to start, pause, and restart the emulator

	// setting the program counter
	inst.pc = startAddr - 4
	// setting i and d cache to first valid block
	for _, block := range inst.memory.Blocks {
		if block != nil {
			inst.iCache = block
			break
		}
	}

	for _, block := range inst.memory.Blocks {
		if block != nil {
			inst.dCache = block
			break
		}
	}

	for uint32(inst.executedInstructions) < inst.runtimeLimit && !inst.terminated {
		inst.pc += 4
		if inst.pc == returnSentinel || inst.pc == returnSentinel-1 {
			// the entry routine returned
			break
		}

		// fetching next instruction
		instruction := inst.memReadWord(inst.pc, true)

		// decoding instruction
		opcode := assembler.GetOpCode(instruction)
		// executing instruction
		switch opcode {
		case assembler.OPCODE_LUI:
			inst.executeLUI(instruction)
		case assembler.OPCODE_AUIPC:
			inst.executeAUIPC(instruction)
		case assembler.OPCODE_JAL:
			inst.executeJAL(instruction)
		case assembler.OPCODE_JALR:
			inst.executeJALR(instruction)
		case assembler.OPCODE_BTYPE:
			inst.executeBType(instruction)
		case assembler.OPCODE_MEMITYPE:
			inst.executeMemIType(instruction)
		case assembler.OPCODE_ITYPE:
			inst.executeIType(instruction)
		case assembler.OPCODE_RTYPE:
			inst.executeRType(instruction)
		case assembler.OPCODE_STYPE:
			inst.executeSType(instruction)
		case assembler.OPCODE_ENV:
			inst.executeEnv(instruction)
		default:
			inst.newException("Unsupported opcode exception: %d", opcode)
		}

		inst.executedInstructions++
	}

	if uint32(inst.executedInstructions) >= inst.runtimeLimit {
		inst.newException("Runtime limit of %d instructions reached. Infinite loop?", inst.runtimeLimit)
	}
}

func (inst *EmulatorInstance) executeLUI(instruction uint32) {
	// decode the instruction
	_, rd, imm := assembler.DecodeUTypeInstruction(instruction)
	inst.regWrite(rd, imm<<12)
}

func (inst *EmulatorInstance) executeAUIPC(instruction uint32) {
	// decode the instruction
	_, rd, imm := assembler.DecodeUTypeInstruction(instruction)
	inst.regWrite(rd, (imm<<12)+inst.pc)
}

func (inst *EmulatorInstance) executeJAL(instruction uint32) {
	// decode the instruction
	_, rd, imm := assembler.DecodeJTypeInstruction(instruction)

	// setting the return address
	if rd != 0 {
		inst.regWrite(rd, inst.pc+4)
		if rd == 1 {
			inst.callStack = append(inst.callStack, inst.pc)
		}
	}

	// jumping to the new address
	inst.pc = uint32(int32(inst.pc)+int32(imm<<11)>>11) - 4 // the -4 is because the pc is incremented by 4 before the instruction is fetched
}

func (inst *EmulatorInstance) executeJALR(instruction uint32) {
	// decode the instruction
	_, rd, rs1, imm, _ := assembler.DecodeITypeInstruction(instruction)

	pcVal := inst.pc
	if rs1 == 1 {
		if len(inst.callStack) > 0 {
			inst.callStack = inst.callStack[:len(inst.callStack)-1]
		}
	} else if rd == 1 {
		inst.callStack = append(inst.callStack, inst.pc)
	}

	// jumping to the new address
	inst.pc = (uint32(int32(inst.regRead(rs1))+int32(imm<<20)>>20) & 0xFFFFFFFE) - 4 // the -4 is because the pc is incremented by 4 before the instruction is fetched

	// setting the return address
	if rd != 0 {
		inst.regWrite(rd, pcVal+4)
	}
}

func (inst *EmulatorInstance) executeBType(instruction uint32) {
	opcode, rs1, rs2, imm, func3 := assembler.DecodeBTypeInstruction(instruction)
	immInt := int32(imm<<19) >> 19
	taken := false
	switch func3 {
	case 0b000:
		// BEQ
		taken = inst.regRead(rs1) == inst.regRead(rs2)
	case 0b001:
		// BNE
		taken = inst.regRead(rs1) != inst.regRead(rs2)
	case 0b100:
		// BLT
		taken = int32(inst.regRead(rs1)) < int32(inst.regRead(rs2))
	case 0b101:
		// BGE
		taken = int32(inst.regRead(rs1)) >= int32(inst.regRead(rs2))
	case 0b110:
		// BLTU
		taken = inst.regRead(rs1) < inst.regRead(rs2)
	case 0b111:
		// BGEU
		taken = inst.regRead(rs1) >= inst.regRead(rs2)
	default:
		inst.newException("Unsupported B-Type instruction exception: op=%d func3=%d", opcode, func3)
		return
	}
	if taken {
		inst.pc = uint32(int32(inst.pc)+immInt) - 4 // the -4 is because the pc is incremented by 4 before the instruction is fetched
	}
}

func (inst *EmulatorInstance) executeMemIType(instruction uint32) {
	_, rd, rs1, imm, func3 := assembler.DecodeITypeInstruction(instruction)

	immInt := int32(imm<<20) >> 20
	// since this is the mem I-type, the opcode is the same for all, thus only func3 needs to be checked
	switch func3 {
	case 0b000:
		// LB
		inst.regWrite(rd, uint32(int8(inst.memReadByte(uint32(int32(inst.regRead(rs1))+immInt)))))
	case 0b001:
		// LH
		inst.regWrite(rd, uint32(int16(inst.memReadHalf(uint32(int32(inst.regRead(rs1))+immInt)))))
	case 0b010:
		// LW
		inst.regWrite(rd, inst.memReadWord(uint32(int32(inst.regRead(rs1))+immInt), false))
	case 0b100:
		// LBU
		inst.regWrite(rd, inst.memReadByte(uint32(int32(inst.regRead(rs1))+immInt)))
	case 0b101:
		// LHU
		inst.regWrite(rd, inst.memReadHalf(uint32(int32(inst.regRead(rs1))+immInt)))
	default:
		inst.newException("Unsupported Mem I-Type instruction exception: func3=%d", func3)
	}
}

func (inst *EmulatorInstance) executeIType(instruction uint32) {
	opcode, rd, rs1, imm, func3 := assembler.DecodeITypeInstruction(instruction)

	switch func3 {
	case 0b000:
		// ADDI
		inst.regWrite(rd, uint32(int32(inst.regRead(rs1))+int32(imm<<20)>>20))
	case 0b010:
		// SLTI
		if int32(inst.regRead(rs1)) < (int32(imm<<20) >> 20) {
			inst.regWrite(rd, 1)
		} else {
			inst.regWrite(rd, 0)
		}
	case 0b011:
		// SLTIU
		if inst.regRead(rs1) < uint32(int32(imm<<20)>>20) {
			inst.regWrite(rd, 1)
		} else {
			inst.regWrite(rd, 0)
		}
	case 0b100:
		// XORI
		inst.regWrite(rd, inst.regRead(rs1)^uint32(int32(imm<<20)>>20))
	case 0b110:
		// ORI
		inst.regWrite(rd, inst.regRead(rs1)|uint32(int32(imm<<20)>>20))
	case 0b111:
		// ANDI
		inst.regWrite(rd, inst.regRead(rs1)&uint32(int32(imm<<20)>>20))
	case 0b001:
		// SLLI
		inst.regWrite(rd, inst.regRead(rs1)<<(imm&0b11111))
	case 0b101:
		// SRLI/SRAI
		if imm>>5 == 0b0000000 {
			// SRLI
			inst.regWrite(rd, inst.regRead(rs1)>>(imm&0b11111))
		} else if imm>>5 == 0b0100000 {
			// SRAI
			inst.regWrite(rd, uint32(int32(inst.regRead(rs1))>>(imm&0b11111)))
		} else {
			inst.newException("Unsupported I-Type instruction exception: op=%d func3=%d imm=%d", opcode, func3, imm)
		}
	}
}

func (inst *EmulatorInstance) executeRType(instruction uint32) {
	opcode, rd, rs1, rs2, func7, func3 := assembler.DecodeRTypeInstruction(instruction)
	if func7 != 0b0000000 && func7 != 0b0100000 {
		inst.newException("Unsupported R-Type instruction exception: op=%d func3=%d func7=%d", opcode, func3, func7)
		return
	}

	switch func3 {
	case 0b000:
		// ADD/SUB
		if func7 == 0b0000000 {
			inst.regWrite(rd, uint32(int32(inst.regRead(rs1))+int32(inst.regRead(rs2))))
		} else {
			inst.regWrite(rd, uint32(int32(inst.regRead(rs1))-int32(inst.regRead(rs2))))
		}
	case 0b001:
		// SLL
		inst.regWrite(rd, inst.regRead(rs1)<<(inst.regRead(rs2)&0b11111))
	case 0b010:
		// SLT
		if int32(inst.regRead(rs1)) < int32(inst.regRead(rs2)) {
			inst.regWrite(rd, 1)
		} else {
			inst.regWrite(rd, 0)
		}
	case 0b011:
		// SLTU
		if inst.regRead(rs1) < inst.regRead(rs2) {
			inst.regWrite(rd, 1)
		} else {
			inst.regWrite(rd, 0)
		}
	case 0b100:
		// XOR
		inst.regWrite(rd, inst.regRead(rs1)^inst.regRead(rs2))
	case 0b101:
		// SRL/SRA
		if func7 == 0b0000000 {
			inst.regWrite(rd, inst.regRead(rs1)>>(inst.regRead(rs2)&0b11111))
		} else {
			inst.regWrite(rd, uint32(int32(inst.regRead(rs1))>>(inst.regRead(rs2)&0b11111)))
		}
	case 0b110:
		// OR
		inst.regWrite(rd, inst.regRead(rs1)|inst.regRead(rs2))
	case 0b111:
		// AND
		inst.regWrite(rd, inst.regRead(rs1)&inst.regRead(rs2))
	}
}

func (inst *EmulatorInstance) executeSType(instruction uint32) {
	opcode, rs1, rs2, imm, func3 := assembler.DecodeSTypeInstruction(instruction)

	immInt := int32(imm<<20) >> 20

	switch func3 {
	case 0b000:
		// SB
		inst.memWriteByte(uint32(int32(inst.regRead(rs1))+immInt), inst.regRead(rs2))
	case 0b001:
		// SH
		inst.memWriteHalf(uint32(int32(inst.regRead(rs1))+immInt), inst.regRead(rs2))
	case 0b010:
		// SW
		inst.memWriteWord(uint32(int32(inst.regRead(rs1))+immInt), inst.regRead(rs2))
	default:
		inst.newException("Unsupported S-Type instruction exception: op=%d func3=%d", opcode, func3)
	}
}

// Environment call services, selected by a7:
//
//	 1: print the integer in a0 to stdout
//	11: print the low byte of a0 to stdout as a character
//	64: write the buffer at a1, length in a0, to stdout
//	93: exit with the code in a0
//	214: sbrk, increment in a1, previous break returned in a0
//
// EBREAK terminates the run where it stands.
func (inst *EmulatorInstance) executeEnv(instruction uint32) {
	opcode, _, _, imm, func3 := assembler.DecodeITypeInstruction(instruction)
	if func3 != 0b000 {
		inst.newException("Unsupported Env-Type instruction exception: op=%d func3=%d", opcode, func3)
		return
	}

	if imm == 0b000000000001 {
		// EBREAK
		inst.exitCode = int(inst.registers[10])
		inst.terminated = true
		return
	}

	switch inst.registers[17] {
	case 1:
		// print integer
		for _, b := range []byte(strconv.FormatInt(int64(int32(inst.registers[10])), 10)) {
			if inst.stdOutCallback != nil {
				inst.stdOutCallback(b)
			}
		}
	case 11:
		// print character
		if inst.stdOutCallback != nil {
			inst.stdOutCallback(byte(inst.registers[10]))
		}
	case 64:
		// write buffer, stops at a zero byte
		for i := uint32(0); i < inst.registers[10]; i++ {
			if inst.stdOutCallback == nil {
				break
			}
			b := byte(inst.memReadByte(inst.registers[11] + i))
			if b == 0 {
				break
			}
			inst.stdOutCallback(b)
		}
	case 93:
		// exit
		inst.exitCode = int(inst.registers[10])
		inst.pc = returnSentinel - 4
	case 214:
		// sbrk
		inst.registers[10] = inst.heapPointer
		inst.heapPointer = uint32(int32(inst.heapPointer) + int32(inst.registers[11]))
	default:
		inst.newException("Unsupported ECALL service: %d", inst.registers[17])
	}
}

func (inst *EmulatorInstance) reportException(exception RuntimeException) {
	inst.errors = append(inst.errors, exception)
	if inst.runtimeErrorCallback != nil && !inst.terminated {
		inst.runtimeErrorCallback(exception)
	}
}
