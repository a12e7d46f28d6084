package languageServer

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"
)

func hoverRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := TextDocumentPositionParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	doc, ok := documents.get(params.TextDocument.URI)
	if !ok {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}

	text, ok := doc.analysis.EvaluateHover(params.Position)
	if !ok {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}

	conn.Reply(context.Background(), req.ID, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: text},
	})
}
