package assembler

import (
	"strconv"
)

// AssembledResult is the output of one Assemble call: the encoded text
// segment, the symbol table built by pass one, and every diagnostic raised
// along the way. Zero words stand in for instructions that failed to encode
// so addresses stay in lockstep between the passes.
type AssembledResult struct {
	Labels            map[string]uint32 // label name to byte address within the text segment
	LabelToLineNumber map[string]int    // label name to defining line number
	AddressToLine     map[uint32]int    // instruction address to source line number
	ProgramText       []uint32
	Diagnostics       []Diagnostic
	FileName          string // for reflection

	fileContents    []string // each line of the file
	finalAddress    uint32   // PC after pass one; pass two must emit exactly this many bytes
	labelRanges     map[string]TextRange
	labelReferences map[string]bool
}

// Bytes serializes the text segment little-endian, four bytes per word.
func (result *AssembledResult) Bytes() []byte {
	buffer := make([]byte, 0, len(result.ProgramText)*4)
	for _, word := range result.ProgramText {
		buffer = append(buffer, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
	}
	return buffer
}

// OK reports whether assembly produced no error-severity diagnostics.
// Warnings do not make a result not-OK.
func (result *AssembledResult) OK() bool {
	return !result.HasErrors()
}

// DiagnosticSink is the capability collaborators use to stream diagnostics
// without seeing the rest of the result. AssembledResult implements it.
type DiagnosticSink interface {
	Report(diagnostic Diagnostic)
	HasErrors() bool
	Count() int
	Summary() string
}

func (result *AssembledResult) Report(diagnostic Diagnostic) {
	if diagnostic.SourceText == "" {
		line := diagnostic.Range.Start.Line
		if line >= 0 && line < len(result.fileContents) {
			diagnostic.SourceText = result.fileContents[line]
		}
	}
	result.Diagnostics = append(result.Diagnostics, diagnostic)
}

func (result *AssembledResult) HasErrors() bool {
	for _, diagnostic := range result.Diagnostics {
		if diagnostic.Severity == Error {
			return true
		}
	}
	return false
}

func (result *AssembledResult) Count() int {
	return len(result.Diagnostics)
}

func (result *AssembledResult) Summary() string {
	errors := 0
	warnings := 0
	for _, diagnostic := range result.Diagnostics {
		switch diagnostic.Severity {
		case Error:
			errors++
		case Warning:
			warnings++
		}
	}
	return strconv.Itoa(errors) + " error(s), " + strconv.Itoa(warnings) + " warning(s)"
}

type EvaluationType int

const (
	EvaluationTypeIntegerLiteral EvaluationType = iota
	EvaluationTypeRegister
	EvaluationTypeLabel
)

type EvaluationResult struct {
	// must be an integer
	Value        int64
	Type         EvaluationType
	MatchedValue string // the string that was matched to get this result
}

type TextPosition struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

type DiagnosticSeverity int

const (
	Error       DiagnosticSeverity = 1
	Warning     DiagnosticSeverity = 2
	Information DiagnosticSeverity = 3
	Hint        DiagnosticSeverity = 4
)

// Diagnostic follows the language-server wire shape so the language server
// can publish it unchanged. SourceText carries the offending line for the
// command-line renderer and is not serialized.
type Diagnostic struct {
	Range      TextRange          `json:"range"`
	Message    string             `json:"message"`
	Source     string             `json:"source,omitempty"`
	Severity   DiagnosticSeverity `json:"severity,omitempty"`
	SourceText string             `json:"-"`
}

// Line is the 1-based source line of the diagnostic.
func (d Diagnostic) Line() int {
	return d.Range.Start.Line + 1
}
