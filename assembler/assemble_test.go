package assembler_test

import (
	"testing"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

func TestProgramIType(t *testing.T) {
	source := `
	.text
		addi x1, x0, 1
		addi x2, x0, 2
	`
	expected := []uint32{
		0x00100093,
		0x00200113,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestProgramRType(t *testing.T) {
	source := `
	.text
		addi x1, x0, 1
		addi x2, x0, 2
		add x3, x1, x2
		sub x4, x1, x2
	`
	expected := []uint32{
		0x00100093,
		0x00200113,
		0x002081b3,
		0x40208233,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestProgramBranchesAndLabels(t *testing.T) {
	source := `
	.text
		label1: addi x1, x0, 1
		addi x2, x0, 2
		beq x1, x2, label1 # should evaluate to -8
	`

	expected := []uint32{
		0x00100093,
		0x00200113,
		0xfe208ce3,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestProgramJumps(t *testing.T) {
	source := `
	.text
		jal x1, label1
		addi x2, x0, 2
		label1: addi x3, x0, 3
	`

	expected := []uint32{
		0x008000ef,
		0x00200113,
		0x00300193,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestUpperImmediates(t *testing.T) {
	source := `
	.text
		lui x1, 0x12345
		auipc x2, 0x1
	`

	expected := []uint32{
		0x123450b7,
		0x00001117,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestBackwardBranch(t *testing.T) {
	source := `
	main: addi x1, x0, 1
	beq x1, x0, main
	`

	expected := []uint32{
		0x00100093,
		0xfe008ee3,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestShortForwardJump(t *testing.T) {
	source := `
	j fin
	fin: addi x1, x0, 1
	`

	expected := []uint32{
		0x0040006f,
		0x00100093,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestLittleEndianBytes(t *testing.T) {
	source := `
	.text
		addi x1, x0, 10
	`

	program := assembler.Assemble(source)
	validateResult(t, program, []uint32{0x00a00093}, nil)

	bytes := program.Bytes()
	expected := []byte{0x93, 0x00, 0xa0, 0x00}
	if len(bytes) != len(expected) {
		t.Fatalf("Expected %d bytes, got %d", len(expected), len(bytes))
	}
	for i, b := range bytes {
		if b != expected[i] {
			t.Errorf("Expected byte %d to be 0x%02x, got 0x%02x", i, expected[i], b)
		}
	}
}

func TestLoadsAndStores(t *testing.T) {
	source := `
	.text
		lui x2, 0x10000
		lw x1, 4(x2)
		sw x1, 8(x2)
	`

	expected := []uint32{
		0x10000137,
		0x00412083,
		0x00112423,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestMisalignedLoadOffsetIsAccepted(t *testing.T) {
	// offset alignment is a runtime concern, not an encoding one
	source := `
	.text
		lw x1, 3(x2)
	`

	expected := []uint32{
		0x00312083,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestOctalImmediate(t *testing.T) {
	source := `
	.text
		addi x1, x0, 0o17
	`

	expected := []uint32{
		0x00f00093,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestPseudoExpansion(t *testing.T) {
	source := `
	.text
		nop
		mv x5, x6
		not x7, x8
		neg x9, x10
	`

	expected := []uint32{
		0x00000013,
		0x00030293,
		0xfff44393,
		0x40a004b3,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestLoadImmediate(t *testing.T) {
	source := `
	.text
		li x5, 1234
		li x6, 0x12345
		li x7, -2048
	`

	expected := []uint32{
		0x4d200293,
		0x00012337,
		0x34530313,
		0x80000393,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestCallAndRet(t *testing.T) {
	source := `
	fn: addi x1, x0, 1
	ret
	call fn
	`

	expected := []uint32{
		0x00100093,
		0x00008067,
		0x00000097,
		0xff8080e7,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestHiLoOperands(t *testing.T) {
	source := `
	target: addi x1, x0, 1
	auipc x5, %hi(target)
	addi x5, x5, %lo(target)
	`

	expected := []uint32{
		0x00100093,
		0x00000297,
		0xffc28293,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestShiftEncodings(t *testing.T) {
	source := `
	.text
		slli x1, x2, 3
		srai x3, x4, 5
	`

	expected := []uint32{
		0x00311093,
		0x40525193,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestAbiRegisterNames(t *testing.T) {
	source := `
	.text
		add a0, sp, t0
	`

	expected := []uint32{
		0x00510533,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestSystemInstructions(t *testing.T) {
	source := `
	.text
		ecall
		ebreak
	`

	expected := []uint32{
		0x00000073,
		0x00100073,
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, nil)
}

func TestUnknownInstruction(t *testing.T) {
	source := `
	.text
		foo x1, x2
	`

	expected := []uint32{0}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Error,
			Range:    charRange(2, 2, 5),
			Message:  "Invalid instruction: \"foo\"",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func TestImmediateOverflow(t *testing.T) {
	source := `
	.text
		addi x1, x0, 5000
	`

	expected := []uint32{0}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Error,
			Range:    charRange(2, 15, 19),
			Message:  "Immediate value \"5000\" is out of range of 12 bits [-2048, 2047]",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func TestDuplicateLabel(t *testing.T) {
	source := `
	a: addi x1, x0, 1
	a: addi x2, x0, 2
	beqz x1, a
	`

	expected := []uint32{
		0x00100093,
		0x00200113,
		0xfe008ce3,
	}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Error,
			Range:    charRange(2, 1, 2),
			Message:  "Label \"a\" is already defined on line 2",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func TestUnusedLabelWarning(t *testing.T) {
	source := `
	addi x1, x0, 1
	dead: addi x2, x0, 2
	`

	expected := []uint32{
		0x00100093,
		0x00200113,
	}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Warning,
			Range:    charRange(2, 1, 5),
			Message:  "Unused label: \"dead\"",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func TestUnresolvedSymbol(t *testing.T) {
	source := `
	.text
		jal x1, nowhere
	`

	expected := []uint32{0}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Error,
			Range:    charRange(2, 10, 17),
			Message:  "Unresolved symbol name: \"nowhere\"",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func TestEmptyOperand(t *testing.T) {
	source := `
		addi x1, , 1
	`

	expected := []uint32{0}
	diagnostics := []assembler.Diagnostic{
		{
			Severity: assembler.Error,
			Range:    charRange(1, 10, 10),
			Message:  "Empty operand (consecutive or trailing commas)",
		},
		{
			Severity: assembler.Error,
			Range:    charRange(1, 10, 10),
			Message:  "Expected register, got: \"\"",
		},
	}

	program := assembler.Assemble(source)
	validateResult(t, program, expected, diagnostics)
}

func charRange(line, startChar, endChar int) assembler.TextRange {
	return assembler.TextRange{
		Start: assembler.TextPosition{Line: line, Char: startChar},
		End:   assembler.TextPosition{Line: line, Char: endChar},
	}
}

func validateResult(t *testing.T, program *assembler.AssembledResult, expectedText []uint32, expectedDiagnostics []assembler.Diagnostic) {
	if len(program.Diagnostics) != len(expectedDiagnostics) {
		t.Fatalf("Expected %d diagnostics, got %d (%v)", len(expectedDiagnostics), len(program.Diagnostics), program.Diagnostics)
	}

	for i, diagnostic := range program.Diagnostics {
		if diagnostic.Severity != expectedDiagnostics[i].Severity {
			t.Errorf("Expected diagnostic %d to have severity %d, got %d", i, expectedDiagnostics[i].Severity, diagnostic.Severity)
		}

		if diagnostic.Range.Start.Line != expectedDiagnostics[i].Range.Start.Line {
			t.Errorf("Expected diagnostic %d to start on line %d, got %d", i, expectedDiagnostics[i].Range.Start.Line, diagnostic.Range.Start.Line)
		}

		if diagnostic.Range.Start.Char != expectedDiagnostics[i].Range.Start.Char {
			t.Errorf("Expected diagnostic %d to start on char %d, got %d", i, expectedDiagnostics[i].Range.Start.Char, diagnostic.Range.Start.Char)
		}

		if diagnostic.Range.End.Line != expectedDiagnostics[i].Range.End.Line {
			t.Errorf("Expected diagnostic %d to end on line %d, got %d", i, expectedDiagnostics[i].Range.End.Line, diagnostic.Range.End.Line)
		}

		if diagnostic.Range.End.Char != expectedDiagnostics[i].Range.End.Char {
			t.Errorf("Expected diagnostic %d to end on char %d, got %d", i, expectedDiagnostics[i].Range.End.Char, diagnostic.Range.End.Char)
		}

		if diagnostic.Message != expectedDiagnostics[i].Message {
			t.Errorf("Expected diagnostic %d to be \"%s\", got \"%s\"", i, expectedDiagnostics[i].Message, diagnostic.Message)
		}
	}

	if len(program.ProgramText) != len(expectedText) {
		t.Fatalf("Expected %d instructions, got %d", len(expectedText), len(program.ProgramText))
	}

	for i, instruction := range program.ProgramText {
		if instruction != expectedText[i] {
			t.Errorf("Expected instruction %d to be 0x%08x, got 0x%08x", i, expectedText[i], instruction)
		}
	}
}
