// Package mcp serves nutrition summaries to assistants over the Model
// Context Protocol. Requests and responses are newline-delimited JSON-RPC
// 2.0 messages on a pair of streams, normally stdin and stdout.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/store"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Source loads every log record of one kind.
type Source interface {
	ListLogs(ctx context.Context, kind intake.Kind) ([]intake.Record, error)
}

// Options configures a Server.
type Options struct {
	Food  intake.Aggregator
	Water intake.Aggregator

	// Goals used by get_today. Zero means no goal.
	CalorieGoal float64
	WaterGoalML float64

	// DefaultDays is used by get_window_summary when no days are given.
	DefaultDays int

	// Favorites is optional; without it list_favorites reports an error.
	Favorites store.KV

	Version string
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server answers initialize, tools/list and tools/call requests.
type Server struct {
	src   Source
	opts  Options
	tools []tool
}

type tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, args json.RawMessage) (any, error)
}

type request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type callResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer builds a Server backed by src with every tool registered.
func NewServer(src Source, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultDays == 0 {
		opts.DefaultDays = 7
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{src: src, opts: opts}
	s.addTools()
	return s
}

func (s *Server) register(t tool) {
	s.tools = append(s.tools, t)
}

func (s *Server) lookup(name string) (tool, bool) {
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

// Run serves requests read from r until ctx is done or r reaches EOF. It
// returns nil on either, and an error only for stream failures.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			scanErr <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return fmt.Errorf("reading requests: %w", err)
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}
			if err := s.handle(ctx, line, bw); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, line string, bw *bufio.Writer) error {
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return s.write(bw, response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "Parse error"}})
	}
	// Notifications get no response.
	if req.ID == nil {
		return nil
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "nutriwatch", "version": s.opts.Version},
		}

	case "tools/list":
		infos := make([]toolInfo, 0, len(s.tools))
		for _, t := range s.tools {
			infos = append(infos, toolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		resp.Result = map[string]any{"tools": infos}

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
			break
		}
		resp.Result = s.call(ctx, params)

	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
	return s.write(bw, resp)
}

// call runs a tool. Tool failures are reported in the result, not as
// JSON-RPC errors.
func (s *Server) call(ctx context.Context, params callParams) callResult {
	t, ok := s.lookup(params.Name)
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", params.Name))
	}
	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	result, err := t.Handler(ctx, args)
	if err != nil {
		s.opts.Logger.Warn("tool failed", "tool", t.Name, "error", err)
		return errorResult(err.Error())
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResult(err.Error())
	}
	s.opts.Logger.Debug("tool called", "tool", t.Name)
	return callResult{Content: []content{{Type: "text", Text: string(data)}}}
}

func errorResult(msg string) callResult {
	return callResult{Content: []content{{Type: "text", Text: msg}}, IsError: true}
}

func (s *Server) write(bw *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}
