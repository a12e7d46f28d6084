package emulator

func (inst *EmulatorInstance) ResetRegisters(config EmulatorConfig) {
	for i := 0; i < 32; i++ {
		inst.registers[i] = 0
	}

	inst.registers[1] = returnSentinel
	inst.registers[2] = config.StackStartAddress
	inst.registers[3] = config.GlobalDataAddress
	inst.registers[8] = config.StackStartAddress // frame pointer
	inst.callStack = []uint32{}
	inst.regInit = 0x10F
}

func NewEmulator(config EmulatorConfig) *EmulatorInstance {
	regs := [32]uint32{}
	regs[1] = returnSentinel
	regs[2] = config.StackStartAddress
	regs[3] = config.GlobalDataAddress
	regs[8] = config.StackStartAddress // frame pointer

	config.Memory.WriteWord(config.StackStartAddress, returnSentinel) // in case the program tries to read from the stack

	return &EmulatorInstance{
		registers:            regs,
		memory:               config.Memory,
		pc:                   0,
		regInit:              0x10F,
		iCache:               nil,
		dCache:               nil,
		runtimeLimit:         config.RuntimeLimit,
		heapPointer:          config.HeapStartAddress,
		errors:               []RuntimeException{},
		callStack:            []uint32{},
		stdOutCallback:       config.StdOutCallback,
		runtimeErrorCallback: config.RuntimeErrorCallback,
	}
}

func NewMemoryImage() *MemoryImage {
	return &MemoryImage{Blocks: map[uint32]*MemoryPage{}}
}

func (m *MemoryImage) getOrCreatePage(addr uint32) *MemoryPage {
	page, ok := m.Blocks[addr>>12]
	if !ok {
		page = &MemoryPage{Block: [1024]uint32{}, StartAddr: addr & 0xFFFFF000}
		m.Blocks[addr>>12] = page
	}
	return page
}

func (m *MemoryImage) WriteWord(addr uint32, value uint32) {
	page := m.getOrCreatePage(addr)
	page.Block[(addr&0xFFF)>>2] = value
	page.Initialized[(addr&0xFFF)>>2] = true
}

func (m *MemoryImage) WriteByte(addr uint32, value byte) {
	page := m.getOrCreatePage(addr)
	page.Block[(addr&0xFFF)>>2] = (page.Block[(addr&0xFFF)>>2] & ^(0xFF << ((addr & 0x3) * 8))) | (uint32(value) << ((addr & 0x3) * 8))
	page.Initialized[(addr&0xFFF)>>2] = true
}

func (m *MemoryImage) ReadWord(addr uint32) (uint32, bool) {
	page, ok := m.Blocks[addr>>12]
	if !ok {
		return 0, false
	}
	return page.Block[(addr&0xFFF)>>2], page.Initialized[(addr&0xFFF)>>2]
}

func (m *MemoryImage) ReadByte(addr uint32) (byte, bool) {
	page, ok := m.Blocks[addr>>12]
	if !ok {
		return 0, false
	}
	return byte((page.Block[(addr&0xFFF)>>2] >> ((addr & 0x3) * 8)) & 0xFF), page.Initialized[(addr&0xFFF)>>2]
}

func (m *MemoryImage) ReadHalfWord(addr uint32) (uint16, bool) {
	page, ok := m.Blocks[addr>>12]
	if !ok {
		return 0, false
	}
	return uint16((page.Block[(addr&0xFFF)>>2] >> ((addr & 0x3) * 8)) & 0xFFFF), page.Initialized[(addr&0xFFF)>>2]
}

func (m *MemoryImage) Clone() *MemoryImage {
	newMem := NewMemoryImage()
	for k, v := range m.Blocks {
		newPage := &MemoryPage{Block: [1024]uint32{}, Initialized: [1024]bool{}, StartAddr: v.StartAddr}
		copy(newPage.Block[:], v.Block[:])
		copy(newPage.Initialized[:], v.Initialized[:])
		newMem.Blocks[k] = newPage
	}
	return newMem
}

func (inst *EmulatorInstance) GetExitCode() int {
	return inst.exitCode
}

func (inst *EmulatorInstance) GetErrors() []RuntimeException {
	return inst.errors
}

func (inst *EmulatorInstance) GetTotalInstructionsExecuted() uint64 {
	return inst.executedInstructions
}

func (inst *EmulatorInstance) GetRegisters() [32]uint32 {
	return inst.registers
}

func (inst *EmulatorInstance) Terminate() {
	inst.terminated = true
}
