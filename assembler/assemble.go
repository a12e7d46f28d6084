package assembler

import (
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)
var operandFunctionPattern = regexp.MustCompile(`^%(hi|lo)\((\w+)\)$`)

// token is a lexeme with its position in the source, so diagnostics can
// underline the exact characters that caused them.
type token struct {
	text string
	r    TextRange
}

type parsedLine struct {
	index            int // 0-based line number
	text             string
	label            token
	mnemonic         token
	operands         []token
	directive        bool
	instructionRange TextRange
}

func (line *parsedLine) operandTexts() []string {
	texts := make([]string, len(line.operands))
	for i, operand := range line.operands {
		texts[i] = operand.text
	}
	return texts
}

// rangeForOperand finds the source range of an operand by text. Operands
// synthesized by pseudo expansion have no source position of their own and
// fall back to the whole instruction.
func (line *parsedLine) rangeForOperand(text string) TextRange {
	text = strings.TrimSpace(text)
	for _, operand := range line.operands {
		if operand.text == text {
			return operand.r
		}
	}
	return line.instructionRange
}

func charRange(lineIndex, startChar, endChar int) TextRange {
	return TextRange{
		Start: TextPosition{Line: lineIndex, Char: startChar},
		End:   TextPosition{Line: lineIndex, Char: endChar},
	}
}

// parseLine tokenizes one source line: comment stripping, optional label
// prefix, mnemonic, comma-separated operands. It never reports diagnostics
// itself; both passes must see the identical token stream, and only pass two
// runs the lexical checks on it.
func parseLine(index int, raw string) parsedLine {
	line := parsedLine{index: index, text: raw}

	code := raw
	if cut := strings.IndexByte(code, '#'); cut >= 0 {
		code = code[:cut]
	}

	// Consumed label prefixes are blanked rather than sliced off so every
	// later character keeps its original column.
	if colon := strings.IndexByte(code, ':'); colon >= 0 {
		name := strings.TrimSpace(code[:colon])
		if identifierPattern.MatchString(name) {
			start := strings.Index(code, name)
			line.label = token{text: name, r: charRange(index, start, start+len(name))}
			code = strings.Repeat(" ", colon+1) + code[colon+1:]
		}
	}

	mnemonicStart := -1
	for i := 0; i < len(code); i++ {
		if code[i] != ' ' && code[i] != '\t' {
			mnemonicStart = i
			break
		}
	}
	if mnemonicStart < 0 {
		return line
	}

	mnemonicEnd := len(code)
	for i := mnemonicStart; i < len(code); i++ {
		if code[i] == ' ' || code[i] == '\t' {
			mnemonicEnd = i
			break
		}
	}

	mnemonic := strings.ToLower(code[mnemonicStart:mnemonicEnd])
	line.mnemonic = token{text: mnemonic, r: charRange(index, mnemonicStart, mnemonicEnd)}
	if strings.HasPrefix(mnemonic, ".") {
		line.directive = true
		return line
	}

	if strings.TrimSpace(code[mnemonicEnd:]) != "" {
		pieceStart := mnemonicEnd
		for pieceStart <= len(code) {
			pieceEnd := len(code)
			if comma := strings.IndexByte(code[pieceStart:], ','); comma >= 0 {
				pieceEnd = pieceStart + comma
			}
			piece := code[pieceStart:pieceEnd]
			trimmed := strings.TrimSpace(piece)
			start := pieceStart
			if trimmed != "" {
				start = pieceStart + strings.Index(piece, trimmed)
			}
			line.operands = append(line.operands, token{
				text: trimmed,
				r:    charRange(index, start, start+len(trimmed)),
			})
			if pieceEnd == len(code) {
				break
			}
			pieceStart = pieceEnd + 1
		}
	}

	end := mnemonicEnd
	if len(line.operands) > 0 {
		end = line.operands[len(line.operands)-1].r.End.Char
	}
	line.instructionRange = charRange(index, mnemonicStart, end)
	return line
}

// Assemble runs both passes over the given source text and returns the
// encoded words together with every diagnostic raised. It never fails early:
// a faulty instruction becomes a zero word so label addresses stay valid for
// everything after it.
func Assemble(source string) *AssembledResult {
	result := &AssembledResult{
		Labels:            map[string]uint32{},
		LabelToLineNumber: map[string]int{},
		AddressToLine:     map[uint32]int{},
		labelRanges:       map[string]TextRange{},
		labelReferences:   map[string]bool{},
	}
	source = strings.ReplaceAll(source, "\r\n", "\n")
	result.fileContents = strings.Split(source, "\n")

	result.collectSymbols()
	result.generateCode()
	result.reportUnusedLabels()
	return result
}

// collectSymbols is pass one: it records every label's byte address and
// advances the program counter by four bytes per expanded instruction.
// Duplicate labels are the only diagnostics raised here; everything else
// waits for pass two so nothing is reported twice.
func (result *AssembledResult) collectSymbols() {
	pc := uint32(0)
	for i, raw := range result.fileContents {
		line := parseLine(i, raw)
		if line.label.text != "" {
			if _, exists := result.Labels[line.label.text]; exists {
				result.Report(Errors.DuplicateLabel(line.label.text, result.LabelToLineNumber[line.label.text], line.label.r))
			} else {
				result.Labels[line.label.text] = pc
				result.LabelToLineNumber[line.label.text] = i
				result.labelRanges[line.label.text] = line.label.r
			}
		}
		if line.mnemonic.text == "" || line.directive {
			continue
		}
		pc += 4 * uint32(expansionLength(line.mnemonic.text, line.operandTexts()))
	}
	result.finalAddress = pc
}

// generateCode is pass two: expand, validate, encode. Every expanded
// instruction appends exactly one word, zero on failure, which keeps the
// emitted byte count equal to the final PC of pass one.
func (result *AssembledResult) generateCode() {
	pc := uint32(0)
	for i, raw := range result.fileContents {
		line := parseLine(i, raw)
		result.validateLineSyntax(&line)
		if line.mnemonic.text == "" || line.directive {
			continue
		}

		expanded := expandPseudo(line.mnemonic.text, line.operandTexts())
		for _, instruction := range expanded {
			result.AddressToLine[pc] = i
			word, ok := result.assembleInstruction(instruction, &line, pc)
			if !ok {
				word = 0
			}
			result.ProgramText = append(result.ProgramText, word)
			pc += 4
		}
	}
}

var legalLineCharacters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_ \t,():%.+-"

// validateLineSyntax runs the lexical checks that do not affect tokenization:
// stray characters, empty operands from doubled or trailing commas, and
// unbalanced parentheses. The encoder still runs afterwards so one line can
// surface several problems.
func (result *AssembledResult) validateLineSyntax(line *parsedLine) {
	if line.directive {
		return
	}
	code := line.text
	if cut := strings.IndexByte(code, '#'); cut >= 0 {
		code = code[:cut]
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(legalLineCharacters, code[i]) < 0 {
			result.Report(Errors.IllegalCharacter(string(code[i]), charRange(line.index, i, i+1)))
		}
	}

	for _, operand := range line.operands {
		if operand.text == "" {
			result.Report(Errors.EmptyOperand(operand.r))
			continue
		}
		if strings.Count(operand.text, "(") != strings.Count(operand.text, ")") {
			result.Report(Errors.UnbalancedParentheses(operand.text, operand.r))
		}
	}
}

func (result *AssembledResult) reportUnusedLabels() {
	for label, r := range result.labelRanges {
		if !result.labelReferences[label] {
			result.Report(Warnings.UnusedLabel(label, r))
		}
	}
}

// assembleInstruction dispatches one concrete instruction to its format
// encoder. The bool result is false when the instruction could not be
// encoded and a zero placeholder must be emitted instead.
func (result *AssembledResult) assembleInstruction(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	format, known := instructionFormats[instruction.mnemonic]
	if !known {
		result.Report(Errors.InvalidInstruction(line.mnemonic.text, line.mnemonic.r))
		return 0, false
	}

	switch format {
	case FormatR:
		return result.assembleRType(instruction, line)
	case FormatI:
		return result.assembleIType(instruction, line, pc)
	case FormatS:
		return result.assembleSType(instruction, line, pc)
	case FormatB:
		return result.assembleBType(instruction, line, pc)
	case FormatU:
		return result.assembleUType(instruction, line, pc)
	case FormatJ:
		return result.assembleJType(instruction, line, pc)
	default:
		return result.assembleSysType(instruction, line)
	}
}

// --- operand evaluation ---

// evaluateOperand resolves one non-register operand: %hi/%lo functions,
// label references, and integer literals in any base strconv accepts
// (decimal, 0x, 0b, 0o). Labels resolve PC-relative when the caller says so
// (branches, jumps), absolute otherwise. %hi rounds with +0x800 and %lo is
// sign-corrected so the pair always sums back to the original displacement.
func (result *AssembledResult) evaluateOperand(expression string, pc uint32, pcRelative bool) (EvaluationResult, error) {
	expression = strings.TrimSpace(expression)

	if match := operandFunctionPattern.FindStringSubmatch(expression); match != nil {
		target, defined := result.Labels[match[2]]
		if !defined {
			return EvaluationResult{}, EvaluationErrors.UnresolvedSymbol(match[2])
		}
		result.labelReferences[match[2]] = true
		if match[1] == "hi" {
			delta := int64(target) - int64(pc)
			return EvaluationResult{Value: (delta + 0x800) >> 12, Type: EvaluationTypeLabel, MatchedValue: expression}, nil
		}
		// %lo is consumed by the instruction after its paired auipc, so it
		// resolves against the pc of the preceding instruction. The pair then
		// sums back to the exact displacement the auipc measured.
		delta := int64(target) - (int64(pc) - 4)
		low := delta & 0xFFF
		if low >= 0x800 {
			low -= 0x1000
		}
		return EvaluationResult{Value: low, Type: EvaluationTypeLabel, MatchedValue: expression}, nil
	}

	if address, defined := result.Labels[expression]; defined {
		result.labelReferences[expression] = true
		value := int64(address)
		if pcRelative {
			value -= int64(pc)
		}
		return EvaluationResult{Value: value, Type: EvaluationTypeLabel, MatchedValue: expression}, nil
	}

	value, err := strconv.ParseInt(expression, 0, 64)
	if err != nil {
		if identifierPattern.MatchString(expression) {
			return EvaluationResult{}, EvaluationErrors.UnresolvedSymbol(expression)
		}
		return EvaluationResult{}, EvaluationErrors.InvalidNumberLiteral(expression)
	}
	return EvaluationResult{Value: value, Type: EvaluationTypeIntegerLiteral, MatchedValue: expression}, nil
}

func (result *AssembledResult) reportEvaluationError(err error, text string, line *parsedLine) {
	r := line.rangeForOperand(text)
	switch {
	case EvaluationErrors.IsUnresolvedSymbolError(err):
		result.Report(Errors.UnresolvedSymbolName(text, r))
	case EvaluationErrors.IsInvalidNumberLiteralError(err):
		result.Report(Errors.InvalidIntegerLiteral(text, r))
	default:
		result.Report(Errors.AnonymousError(err.Error(), r))
	}
}

func (result *AssembledResult) evaluateRegister(text string, line *parsedLine) (uint32, bool) {
	index, ok := RegisterNameMap[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		result.Report(Errors.InvalidRegister(text, line.rangeForOperand(text)))
		return 0, false
	}
	return index, true
}

// evaluateImmediate resolves an operand and range-checks it as a signed
// value of the given width. Values produced by %hi/%lo or a raw label skip
// the range check and are masked by the encoder instead, since their bit
// patterns are already the final field contents.
func (result *AssembledResult) evaluateImmediate(text string, line *parsedLine, pc uint32, bits int) (int64, bool) {
	evaluated, err := result.evaluateOperand(text, pc, false)
	if err != nil {
		result.reportEvaluationError(err, text, line)
		return 0, false
	}
	if evaluated.Type == EvaluationTypeIntegerLiteral {
		bound := int64(1) << (bits - 1)
		if evaluated.Value < -bound || evaluated.Value >= bound {
			result.Report(Errors.ImmediateOverflow(text, bits, line.rangeForOperand(text)))
			return 0, false
		}
	} else if !strings.HasPrefix(strings.TrimSpace(text), "%") {
		result.Report(Warnings.LabelUsedForNumberLiteral(line.rangeForOperand(text)))
	}
	return evaluated.Value, true
}

// splitMemoryOperand breaks an imm(reg) operand apart. The register sits in
// the final parenthesis group so offsets like %lo(label) survive the split.
func splitMemoryOperand(text string) (offset string, register string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasSuffix(text, ")") {
		return "", "", false
	}
	closeIndex := len(text) - 1
	openIndex := strings.LastIndexByte(text[:closeIndex], '(')
	if openIndex <= 0 {
		return "", "", false
	}
	offset = strings.TrimSpace(text[:openIndex])
	register = strings.TrimSpace(text[openIndex+1 : closeIndex])
	if offset == "" || register == "" {
		return "", "", false
	}
	return offset, register, true
}

// --- format encoders ---

func (result *AssembledResult) wrongFormat(format string, instruction expandedInstruction, line *parsedLine) (uint32, bool) {
	result.Report(Errors.InvalidInstructionFormat(format, instruction.mnemonic, line.instructionRange))
	return 0, false
}

func (result *AssembledResult) assembleRType(instruction expandedInstruction, line *parsedLine) (uint32, bool) {
	if len(instruction.operands) != 3 {
		return result.wrongFormat(instruction.mnemonic+" rd, rs1, rs2", instruction, line)
	}
	rd, ok1 := result.evaluateRegister(instruction.operands[0], line)
	rs1, ok2 := result.evaluateRegister(instruction.operands[1], line)
	rs2, ok3 := result.evaluateRegister(instruction.operands[2], line)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return makeRTypeInstruction(opcodeForMnemonic(instruction.mnemonic), rd, rs1, rs2,
		funct7Values[instruction.mnemonic], funct3Values[instruction.mnemonic]), true
}

func (result *AssembledResult) assembleIType(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	mnemonic := instruction.mnemonic

	if loadMnemonics[mnemonic] {
		if len(instruction.operands) != 2 {
			return result.wrongFormat(mnemonic+" rd, imm(rs1)", instruction, line)
		}
		rd, ok := result.evaluateRegister(instruction.operands[0], line)
		if !ok {
			return 0, false
		}
		return result.assembleMemoryOperand(mnemonic, rd, instruction.operands[1], line, pc)
	}

	if mnemonic == "jalr" {
		switch len(instruction.operands) {
		case 2:
			rd, ok := result.evaluateRegister(instruction.operands[0], line)
			if !ok {
				return 0, false
			}
			return result.assembleMemoryOperand(mnemonic, rd, instruction.operands[1], line, pc)
		case 3:
			// register-register-immediate form, handled below
		default:
			return result.wrongFormat("jalr rd, rs1, imm | jalr rd, imm(rs1)", instruction, line)
		}
	}

	if len(instruction.operands) != 3 {
		return result.wrongFormat(mnemonic+" rd, rs1, imm", instruction, line)
	}
	rd, ok1 := result.evaluateRegister(instruction.operands[0], line)
	rs1, ok2 := result.evaluateRegister(instruction.operands[1], line)
	if !ok1 || !ok2 {
		return 0, false
	}

	if shiftImmediateMnemonics[mnemonic] {
		evaluated, err := result.evaluateOperand(instruction.operands[2], pc, false)
		if err != nil {
			result.reportEvaluationError(err, instruction.operands[2], line)
			return 0, false
		}
		if evaluated.Value < 0 || evaluated.Value > 31 {
			result.Report(Errors.ShiftAmountOutOfRange(instruction.operands[2], line.rangeForOperand(instruction.operands[2])))
			return 0, false
		}
		immediate := funct7Values[mnemonic]<<5 | uint32(evaluated.Value)
		return makeITypeInstruction(opcodeForMnemonic(mnemonic), rd, rs1, immediate, funct3Values[mnemonic]), true
	}

	immediate, ok := result.evaluateImmediate(instruction.operands[2], line, pc, 12)
	if !ok {
		return 0, false
	}
	return makeITypeInstruction(opcodeForMnemonic(mnemonic), rd, rs1, uint32(int32(immediate)), funct3Values[mnemonic]), true
}

// assembleMemoryOperand finishes loads and memory-form jalr once rd is known.
// Offset alignment is not checked; a misaligned access is a runtime concern,
// not an encoding one.
func (result *AssembledResult) assembleMemoryOperand(mnemonic string, rd uint32, operand string, line *parsedLine, pc uint32) (uint32, bool) {
	offsetText, registerText, ok := splitMemoryOperand(operand)
	if !ok {
		result.Report(Errors.InvalidMemoryOperand(operand, line.rangeForOperand(operand)))
		return 0, false
	}
	rs1, ok := result.evaluateRegister(registerText, line)
	if !ok {
		return 0, false
	}
	offset, ok := result.evaluateImmediate(offsetText, line, pc, 12)
	if !ok {
		return 0, false
	}
	return makeITypeInstruction(opcodeForMnemonic(mnemonic), rd, rs1, uint32(int32(offset)), funct3Values[mnemonic]), true
}

func (result *AssembledResult) assembleSType(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	if len(instruction.operands) != 2 {
		return result.wrongFormat(instruction.mnemonic+" rs2, imm(rs1)", instruction, line)
	}
	rs2, ok := result.evaluateRegister(instruction.operands[0], line)
	if !ok {
		return 0, false
	}
	offsetText, registerText, ok := splitMemoryOperand(instruction.operands[1])
	if !ok {
		result.Report(Errors.InvalidMemoryOperand(instruction.operands[1], line.rangeForOperand(instruction.operands[1])))
		return 0, false
	}
	rs1, ok := result.evaluateRegister(registerText, line)
	if !ok {
		return 0, false
	}
	offset, ok := result.evaluateImmediate(offsetText, line, pc, 12)
	if !ok {
		return 0, false
	}
	return makeSTypeInstruction(opcodeForMnemonic(instruction.mnemonic), rs1, rs2, uint32(int32(offset)),
		funct3Values[instruction.mnemonic]), true
}

func (result *AssembledResult) assembleBType(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	if len(instruction.operands) != 3 {
		return result.wrongFormat(instruction.mnemonic+" rs1, rs2, label", instruction, line)
	}
	rs1, ok1 := result.evaluateRegister(instruction.operands[0], line)
	rs2, ok2 := result.evaluateRegister(instruction.operands[1], line)
	if !ok1 || !ok2 {
		return 0, false
	}
	target := instruction.operands[2]
	evaluated, err := result.evaluateOperand(target, pc, true)
	if err != nil {
		result.reportEvaluationError(err, target, line)
		return 0, false
	}
	offset := evaluated.Value
	if offset%2 != 0 {
		result.Report(Errors.MisalignedBranchTarget(target, line.rangeForOperand(target)))
		return 0, false
	}
	if offset < -4096 || offset > 4094 {
		result.Report(Errors.BranchTargetOutOfRange(target, 13, line.rangeForOperand(target)))
		return 0, false
	}
	return makeBTypeInstruction(opcodeForMnemonic(instruction.mnemonic), rs1, rs2, uint32(int32(offset)),
		funct3Values[instruction.mnemonic]), true
}

func (result *AssembledResult) assembleUType(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	if len(instruction.operands) != 2 {
		return result.wrongFormat(instruction.mnemonic+" rd, imm", instruction, line)
	}
	rd, ok := result.evaluateRegister(instruction.operands[0], line)
	if !ok {
		return 0, false
	}
	evaluated, err := result.evaluateOperand(instruction.operands[1], pc, false)
	if err != nil {
		result.reportEvaluationError(err, instruction.operands[1], line)
		return 0, false
	}
	if evaluated.Type == EvaluationTypeIntegerLiteral && (evaluated.Value < 0 || evaluated.Value > 0xFFFFF) {
		result.Report(Errors.UnsignedImmediateOverflow(instruction.operands[1], 20, line.rangeForOperand(instruction.operands[1])))
		return 0, false
	}
	return makeUTypeInstruction(opcodeForMnemonic(instruction.mnemonic), rd, uint32(int32(evaluated.Value))), true
}

func (result *AssembledResult) assembleJType(instruction expandedInstruction, line *parsedLine, pc uint32) (uint32, bool) {
	if len(instruction.operands) != 2 {
		return result.wrongFormat(instruction.mnemonic+" rd, label", instruction, line)
	}
	rd, ok := result.evaluateRegister(instruction.operands[0], line)
	if !ok {
		return 0, false
	}
	target := instruction.operands[1]
	evaluated, err := result.evaluateOperand(target, pc, true)
	if err != nil {
		result.reportEvaluationError(err, target, line)
		return 0, false
	}
	offset := evaluated.Value
	if offset%2 != 0 {
		result.Report(Errors.MisalignedBranchTarget(target, line.rangeForOperand(target)))
		return 0, false
	}
	if offset < -1048576 || offset > 1048574 {
		result.Report(Errors.BranchTargetOutOfRange(target, 21, line.rangeForOperand(target)))
		return 0, false
	}
	return makeJTypeInstruction(opcodeForMnemonic(instruction.mnemonic), rd, uint32(int32(offset))), true
}

func (result *AssembledResult) assembleSysType(instruction expandedInstruction, line *parsedLine) (uint32, bool) {
	if len(instruction.operands) != 0 {
		return result.wrongFormat(instruction.mnemonic, instruction, line)
	}
	immediate := uint32(0)
	if instruction.mnemonic == "ebreak" {
		immediate = 1
	}
	return makeITypeInstruction(OPCODE_ENV, 0, 0, immediate, 0), true
}
