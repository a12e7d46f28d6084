package languageServer

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

// A document is one open editor buffer together with the analysis of its
// current text. The store reassembles on open and on every full-text
// change; pull diagnostics, hover and reformat all read the cached result
// instead of paying for another pass.
type document struct {
	uri      DocumentUri
	version  int
	text     string
	analysis *assembler.AssembledResult
}

func (d *document) analyze() {
	result := assembler.Assemble(d.text)
	result.FileName = string(d.uri)
	if result.Diagnostics == nil {
		result.Diagnostics = make([]assembler.Diagnostic, 0)
	}
	d.analysis = result
}

type documentStore struct {
	open map[DocumentUri]*document
}

var documents = documentStore{open: map[DocumentUri]*document{}}

func (s *documentStore) openDocument(item TextDocumentItem) *document {
	doc := &document{uri: item.URI, version: item.Version, text: item.Text}
	doc.analyze()
	s.open[item.URI] = doc
	return doc
}

func (s *documentStore) updateDocument(uri DocumentUri, version int, text string) *document {
	doc, ok := s.open[uri]
	if !ok {
		doc = &document{uri: uri}
		s.open[uri] = doc
	}
	doc.version = version
	doc.text = text
	doc.analyze()
	return doc
}

func (s *documentStore) closeDocument(uri DocumentUri) {
	delete(s.open, uri)
}

func (s *documentStore) get(uri DocumentUri) (*document, bool) {
	doc, ok := s.open[uri]
	return doc, ok
}

func publishDiagnostics(conn *jsonrpc2.Conn, doc *document) {
	conn.Notify(context.Background(), "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         doc.uri,
		Version:     doc.version,
		Diagnostics: doc.analysis.Diagnostics,
	})
}

func didOpenNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidOpenTextDocumentParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	doc := documents.openDocument(params.TextDocument)
	publishDiagnostics(conn, doc)
}

func didChangeNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidChangeTextDocumentParams{}
	if !decodeParams(conn, req, &params) {
		return
	}
	if len(params.ContentChanges) == 0 {
		return
	}

	// Sync is full-text, so the last change carries the whole document.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	doc := documents.updateDocument(params.TextDocument.URI, params.TextDocument.Version, text)
	publishDiagnostics(conn, doc)
}

func didCloseNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DidCloseTextDocumentParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	documents.closeDocument(params.TextDocument.URI)
}

func diagnosticRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := DocumentDiagnosticParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	items := make([]assembler.Diagnostic, 0)
	if doc, ok := documents.get(params.TextDocument.URI); ok {
		items = doc.analysis.Diagnostics
	}

	conn.Reply(context.Background(), req.ID, FullDocumentDiagnosticReport{Kind: "full", Items: items})
}
