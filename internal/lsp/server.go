package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/diag"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeServerNotReady = -32002
)

// Options configure a Server.
type Options struct {
	// Policy decides diagnostic severities. Nil uses the defaults.
	Policy *diag.Policy
	Logger *slog.Logger
}

// Server implements the Language Server Protocol for tern sources. Every
// open document is recompiled in full on each change.
type Server struct {
	documents *DocumentStore
	driver    *driver.Driver
	logger    *slog.Logger

	projectRoot string
	initialized bool

	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	shutdown bool
}

// NewServer creates a server reading requests from reader and writing
// responses to writer.
func NewServer(reader io.Reader, writer io.Writer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		documents: NewDocumentStore(),
		// Columns are bytes so they map directly onto editor characters.
		driver: driver.New(driver.Config{TabWidth: 1, Policy: opts.Policy, Logger: logger}),
		logger: logger,
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Run processes messages until the client sends exit, the input ends or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("language server starting")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				s.sendResponse(nil, nil, &JSONRPCError{Code: codeParseError, Message: err.Error()})
				continue
			}
			return err
		}
		if msg.Method == "exit" {
			s.logger.Info("server exit")
			if !s.shutdown {
				return errors.New("exit before shutdown")
			}
			return nil
		}
		if err := s.handleMessage(ctx, msg); err != nil {
			s.logger.Error("error handling message", slog.String("method", msg.Method), slog.Any("error", err))
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// readMessage reads one Content-Length framed message.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			contentLength, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}
	if contentLength < 0 {
		return nil, errors.New("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// sendResponse answers the request id with result or err.
func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{JSONRPC: "2.0", ID: id}
	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		body, err := json.Marshal(result)
		if err != nil {
			s.logger.Error("failed to marshal result", slog.Any("error", err))
			return
		}
		msg.Result = body
	}
	s.writeMessage(&msg)
}

// sendNotification sends a message without an id.
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			s.logger.Error("failed to marshal notification", slog.Any("error", err))
			return
		}
		msg.Params = body
	}
	s.writeMessage(&msg)
}

func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal message", slog.Any("error", err))
		return
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(body), body); err != nil {
		s.logger.Error("failed to write message", slog.Any("error", err))
	}
}

// handleMessage dispatches a message to its handler.
func (s *Server) handleMessage(ctx context.Context, msg *JSONRPCMessage) error {
	s.logger.Debug("received", slog.String("method", msg.Method))

	if !s.initialized && msg.Method != "initialize" && msg.Method != "initialized" {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeServerNotReady, Message: "server not initialized"})
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdown = true
		s.sendResponse(msg.ID, nil, nil)
		return nil
	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		s.open(ctx, params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
		return nil
	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		// Full sync: the last change holds the whole document.
		if n := len(params.ContentChanges); n > 0 {
			s.open(ctx, params.TextDocument.URI, params.ContentChanges[n-1].Text, params.TextDocument.Version)
		}
		return nil
	case "textDocument/didSave":
		var params DidSaveTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		if doc := s.documents.Get(params.TextDocument.URI); doc != nil && params.Text != "" && params.Text != doc.Content {
			s.open(ctx, doc.URI, params.Text, doc.Version)
		}
		return nil
	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		s.documents.Close(params.TextDocument.URI)
		s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
		return nil
	case "textDocument/completion":
		var params CompletionParams
		return s.request(msg, &params, func() any {
			return &CompletionList{Items: s.completions(params)}
		})
	case "textDocument/hover":
		var params HoverParams
		return s.request(msg, &params, func() any { return s.hover(params) })
	case "textDocument/definition":
		var params DefinitionParams
		return s.request(msg, &params, func() any { return s.definition(params) })
	case "textDocument/formatting":
		var params DocumentFormattingParams
		return s.request(msg, &params, func() any { return s.format(params) })
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// request decodes the params of msg and answers it with the result of fn.
func (s *Server) request(msg *JSONRPCMessage, params any, fn func() any) error {
	if err := json.Unmarshal(msg.Params, params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}
	s.sendResponse(msg.ID, fn(), nil)
	return nil
}

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}
	s.projectRoot = URIToPath(params.RootURI)
	s.initialized = true
	s.logger.Info("initialized", slog.String("root", s.projectRoot))

	s.sendResponse(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save:      &SaveOptions{IncludeText: true},
			},
			CompletionProvider:         &CompletionOptions{TriggerCharacters: []string{"(", ":"}},
			HoverProvider:              true,
			DefinitionProvider:         true,
			DocumentFormattingProvider: true,
		},
	}, nil)
	return nil
}

// open compiles content as the new state of uri and publishes its
// diagnostics.
func (s *Server) open(ctx context.Context, uri, content string, version int) {
	doc := newDocument(uri, content, version)
	doc.Result = s.driver.Compile(ctx, URIToPath(uri), content)
	s.documents.Put(doc)
	s.publishDiagnostics(doc)
}
