package languageServer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

// stdio transport: the protocol owns stdout, so nothing else in the process
// may write to it while the server runs.
type stdioStream struct{}

func (stdioStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdioStream) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// ListenAndServe runs the language server over stdin/stdout and blocks
// until the client disconnects.
func ListenAndServe() {
	stream := jsonrpc2.NewBufferedStream(stdioStream{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, handler{})
	<-conn.DisconnectNotify()
}

// ListenAndServeTCP accepts language server connections on :2035, one
// protocol session per connection. Used for debugging against editors that
// cannot spawn the server themselves.
func ListenAndServeTCP() {
	listener, err := net.Listen("tcp", ":2035")
	if err != nil {
		log.Fatalf("Language server: failed to listen on :2035: %v", err)
	}

	log.Println("Language server listening for TCP connections on :2035")

	connections := 0
	for {
		netConn, err := listener.Accept()
		if err != nil {
			log.Fatalf("Language server: accept failed: %v", err)
		}

		connections++
		id := connections
		log.Printf("Language server: connection #%d opened", id)

		stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
		conn := jsonrpc2.NewConn(context.Background(), stream, handler{})
		go func() {
			<-conn.DisconnectNotify()
			log.Printf("Language server: connection #%d closed", id)
		}()
	}
}

type handler struct{}

var methods = map[string]func(*jsonrpc2.Conn, *jsonrpc2.Request){
	"initialize":                     initializeRequest,
	"textDocument/didOpen":           didOpenNotification,
	"textDocument/didChange":         didChangeNotification,
	"textDocument/didClose":          didCloseNotification,
	"textDocument/diagnostic":        diagnosticRequest,
	"textDocument/hover":             hoverRequest,
	"textDocument/willSaveWaitUntil": willSaveRequest,
}

func (handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	util.TraceF("language server: %s", req.Method)

	if method, ok := methods[req.Method]; ok {
		method(conn, req)
		return
	}

	switch req.Method {
	case "shutdown":
		conn.Reply(context.Background(), req.ID, nil)
	case "exit":
		conn.Close()
	}
}

func initializeRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	params := InitializeParams{}
	if !decodeParams(conn, req, &params) {
		return
	}

	// Every capability is announced statically; nothing is registered after
	// the handshake.
	conn.Reply(context.Background(), req.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose:         true,
				Change:            1, // full document sync
				WillSaveWaitUntil: true,
			},
			DiagnosticProvider: DiagnosticOptions{},
			HoverProvider:      true,
		},
	})
}

func decodeParams(conn *jsonrpc2.Conn, req *jsonrpc2.Request, into interface{}) bool {
	if req.Params == nil {
		replyInvalidParams(conn, req)
		return false
	}
	if err := json.Unmarshal(*req.Params, into); err != nil {
		replyInvalidParams(conn, req)
		return false
	}
	return true
}

func replyInvalidParams(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	rpcErr := jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	rpcErr.SetError("invalid parameters")
	conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
}
