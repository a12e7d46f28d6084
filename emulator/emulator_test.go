package emulator_test

import (
	"strings"
	"testing"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/emulator"
)

func runProgram(t *testing.T, source string) (*emulator.EmulatorInstance, string) {
	program := assembler.Assemble(source)
	if !program.OK() {
		t.Fatalf("Program did not assemble: %v", program.Diagnostics)
	}

	memory := emulator.NewMemoryImage()
	for i, word := range program.ProgramText {
		memory.WriteWord(uint32(i)*4, word)
	}

	output := &strings.Builder{}
	config := emulator.EmulatorConfig{
		StackStartAddress: 0x7FFFFFF0,
		GlobalDataAddress: uint32(len(program.ProgramText) * 4),
		HeapStartAddress:  0x10000000,
		Memory:            memory,
		RuntimeLimit:      10000,
		RuntimeErrorCallback: func(e emulator.RuntimeException) {
			t.Errorf("Runtime exception at pc=0x%08X: %s", e.PC(), e.Message())
		},
		StdOutCallback: func(b byte) {
			output.WriteByte(b)
		},
	}

	instance := emulator.NewEmulator(config)
	instance.Emulate(0)
	return instance, output.String()
}

func TestExitCode(t *testing.T) {
	source := `
	li a0, 42
	li a7, 93
	ecall
	`

	instance, _ := runProgram(t, source)
	if instance.GetExitCode() != 42 {
		t.Errorf("Expected exit code 42, got %d", instance.GetExitCode())
	}
}

func TestEbreakTerminates(t *testing.T) {
	source := `
	li a0, 7
	ebreak
	li a0, 1
	`

	instance, _ := runProgram(t, source)
	if instance.GetExitCode() != 7 {
		t.Errorf("Expected exit code 7, got %d", instance.GetExitCode())
	}
}

func TestSumLoop(t *testing.T) {
	source := `
	li t0, 0
	li t1, 0
	loop:
	addi t1, t1, 1
	add t0, t0, t1
	li t2, 5
	blt t1, t2, loop
	mv a0, t0
	li a7, 93
	ecall
	`

	instance, _ := runProgram(t, source)
	if instance.GetExitCode() != 15 {
		t.Errorf("Expected exit code 15, got %d", instance.GetExitCode())
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	source := `
	lui s1, 0x10000
	li t0, 123
	sw t0, 0(s1)
	lw a0, 0(s1)
	li a7, 93
	ecall
	`

	instance, _ := runProgram(t, source)
	if instance.GetExitCode() != 123 {
		t.Errorf("Expected exit code 123, got %d", instance.GetExitCode())
	}
}

func TestFunctionCall(t *testing.T) {
	source := `
	j main
	fn:
	li a0, 9
	ret
	main:
	call fn
	li a7, 93
	ecall
	`

	instance, _ := runProgram(t, source)
	if instance.GetExitCode() != 9 {
		t.Errorf("Expected exit code 9, got %d", instance.GetExitCode())
	}
}

func TestPrintCharacter(t *testing.T) {
	source := `
	li a0, 72
	li a7, 11
	ecall
	li a0, 105
	ecall
	li a0, 0
	li a7, 93
	ecall
	`

	_, output := runProgram(t, source)
	if output != "Hi" {
		t.Errorf("Expected output \"Hi\", got %q", output)
	}
}

func TestPrintInteger(t *testing.T) {
	source := `
	li a0, -42
	li a7, 1
	ecall
	li a0, 0
	li a7, 93
	ecall
	`

	_, output := runProgram(t, source)
	if output != "-42" {
		t.Errorf("Expected output \"-42\", got %q", output)
	}
}

func TestStdOutPipe(t *testing.T) {
	source := `
	lui s1, 0x80003
	li t0, 33
	sw t0, 4(s1)
	li a0, 0
	li a7, 93
	ecall
	`

	_, output := runProgram(t, source)
	if output != "!" {
		t.Errorf("Expected output \"!\", got %q", output)
	}
}

func TestRuntimeLimit(t *testing.T) {
	source := `
	spin:
	j spin
	`

	program := assembler.Assemble(source)
	if !program.OK() {
		t.Fatalf("Program did not assemble: %v", program.Diagnostics)
	}

	memory := emulator.NewMemoryImage()
	for i, word := range program.ProgramText {
		memory.WriteWord(uint32(i)*4, word)
	}

	config := emulator.EmulatorConfig{
		StackStartAddress: 0x7FFFFFF0,
		GlobalDataAddress: uint32(len(program.ProgramText) * 4),
		HeapStartAddress:  0x10000000,
		Memory:            memory,
		RuntimeLimit:      100,
	}

	instance := emulator.NewEmulator(config)
	instance.Emulate(0)
	if len(instance.GetErrors()) == 0 {
		t.Error("Expected a runtime limit exception")
	}
}

func TestSbrk(t *testing.T) {
	source := `
	li a1, 16
	li a7, 214
	ecall
	li a7, 93
	ecall
	`

	instance, _ := runProgram(t, source)
	if uint32(instance.GetExitCode()) != 0x10000000 {
		t.Errorf("Expected sbrk to return the heap base, got 0x%08X", instance.GetExitCode())
	}
}

func TestUninitializedRegisterFault(t *testing.T) {
	source := `
	add a0, t3, t4
	li a7, 93
	ecall
	`

	program := assembler.Assemble(source)
	if !program.OK() {
		t.Fatalf("Program did not assemble: %v", program.Diagnostics)
	}

	memory := emulator.NewMemoryImage()
	for i, word := range program.ProgramText {
		memory.WriteWord(uint32(i)*4, word)
	}

	config := emulator.EmulatorConfig{
		StackStartAddress: 0x7FFFFFF0,
		GlobalDataAddress: uint32(len(program.ProgramText) * 4),
		HeapStartAddress:  0x10000000,
		Memory:            memory,
		RuntimeLimit:      100,
	}

	instance := emulator.NewEmulator(config)
	instance.Emulate(0)
	if len(instance.GetErrors()) == 0 {
		t.Error("Expected an uninitialized register exception")
	}
}
