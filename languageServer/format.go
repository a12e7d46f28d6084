package languageServer

import (
	"context"
	"strings"

	"github.com/sourcegraph/jsonrpc2"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

// reformat normalizes a document: directives and labels start in column
// zero, instructions line up one column past the longest label, token runs
// collapse to single spaces, comments stay on their lines.
func reformat(doc *document) string {
	indentWidth := 2
	for label := range doc.analysis.Labels {
		if len(label)+2 > indentWidth {
			indentWidth = len(label) + 2
		}
	}
	indent := strings.Repeat(" ", indentWidth)

	lines := strings.Split(doc.text, "\n")
	for i, line := range lines {
		lines[i] = reformatLine(line, indent)
	}
	return strings.Join(lines, "\n")
}

func reformatLine(line, indent string) string {
	code := line
	comment := ""
	if cut := strings.IndexByte(line, '#'); cut >= 0 {
		code = line[:cut]
		comment = strings.TrimRight(line[cut:], " \t")
	}

	fields := strings.Fields(code)
	if len(fields) == 0 {
		return comment
	}

	label := ""
	if colon := strings.IndexByte(fields[0], ':'); colon >= 0 {
		label = fields[0][:colon+1]
		if rest := fields[0][colon+1:]; rest != "" {
			fields[0] = rest
		} else {
			fields = fields[1:]
		}
	}

	text := strings.Join(fields, " ")
	switch {
	case label == "" && strings.HasPrefix(text, "."):
		// directives stay flush left
	case label == "":
		text = indent + text
	case len(label) < len(indent):
		text = label + strings.Repeat(" ", len(indent)-len(label)) + text
	default:
		text = label + " " + text
	}

	if comment != "" {
		if text != "" {
			text += " "
		}
		text += comment
	}
	return strings.TrimRight(text, " ")
}

func willSaveRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := WillSaveTextDocumentParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	doc, ok := documents.get(params.TextDocument.URI)
	if !ok {
		conn.Reply(context.Background(), req.ID, []TextEdit{})
		return
	}

	lines := strings.Split(doc.text, "\n")
	whole := assembler.TextRange{
		Start: assembler.TextPosition{Line: 0, Char: 0},
		End:   assembler.TextPosition{Line: len(lines) - 1, Char: len(lines[len(lines)-1])},
	}

	util.TraceF("language server: reformatted %s", doc.uri)
	conn.Reply(context.Background(), req.ID, []TextEdit{{Range: whole, NewText: reformat(doc)}})
}
