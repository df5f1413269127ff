// Package agent drives a bounded tool-using reasoning loop against the
// configured MCP tool servers and returns the structured report the model
// produces.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/traceforce/mcp-profiler/internal/llm"
	"github.com/traceforce/mcp-profiler/internal/metadata"
)

const (
	// MaxTurns caps the model's reasoning/tool-call loop. Exceeding it
	// fails the invocation; callers never see a partially filled report.
	MaxTurns = 100

	// ConnectTimeout bounds the startup of each tool-server subprocess.
	ConnectTimeout = 300 * time.Second

	// SettleDelay is the grace period after the model reports completion,
	// before tool-server connections are released. It lets in-flight
	// subprocess file operations finish before the scanned working tree is
	// torn down. Best-effort mitigation, not a correctness guarantee.
	SettleDelay = 3 * time.Second
)

// ErrTurnBudgetExceeded is returned when the loop hits MaxTurns without the
// model producing a final report.
var ErrTurnBudgetExceeded = fmt.Errorf("agent exceeded the %d-turn budget", MaxTurns)

// chatClient is the slice of the LLM client the loop needs.
type chatClient interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.Message, error)
}

// Invoker runs one scan agent invocation at a time. Tool-server sessions are
// acquired per invocation and never pooled across scans.
type Invoker struct {
	client  chatClient
	servers []ServerSpec

	maxTurns       int
	connectTimeout time.Duration
	settleDelay    time.Duration
}

// NewInvoker creates an invoker using the given chat client and tool-server
// set.
func NewInvoker(client *llm.Client, servers []ServerSpec) *Invoker {
	return &Invoker{
		client:         client,
		servers:        servers,
		maxTurns:       MaxTurns,
		connectTimeout: ConnectTimeout,
		settleDelay:    SettleDelay,
	}
}

// session pairs a live MCP client session with the server spec it came from.
type session struct {
	spec ServerSpec
	conn *mcp.ClientSession
}

// toolBinding maps a namespaced tool name back to its owning session and the
// server-side tool name.
type toolBinding struct {
	session *session
	tool    string
}

// Invoke runs the full agent loop against the target path. Sessions are
// released on every exit path; on success the settle delay runs first.
func (a *Invoker) Invoke(ctx context.Context, targetPath string) (*Report, error) {
	sessions, err := a.connect(ctx)
	defer releaseSessions(sessions)
	if err != nil {
		return nil, err
	}

	bindings, defs, err := a.discoverTools(ctx, sessions)
	if err != nil {
		return nil, err
	}

	rep, err := a.runLoop(ctx, targetPath, bindings, defs)
	if err != nil {
		return nil, err
	}

	// Let spawned tool-server subprocesses flush pending file operations
	// before the deferred session release tears them down.
	time.Sleep(a.settleDelay)

	return rep, nil
}

// connect starts every configured tool-server subprocess and performs the
// MCP handshake. A single failed server fails the whole invocation; the
// sessions already opened are returned so the caller's release still runs.
func (a *Invoker) connect(ctx context.Context) ([]*session, error) {
	var sessions []*session
	for _, spec := range a.servers {
		connectCtx, cancel := context.WithTimeout(ctx, a.connectTimeout)
		conn, err := connectServer(connectCtx, spec)
		cancel()
		if err != nil {
			return sessions, fmt.Errorf("failed to connect to tool server %s: %w", spec.Name, err)
		}
		logrus.WithField("server", spec.Name).Debug("tool server connected")
		sessions = append(sessions, &session{spec: spec, conn: conn})
	}
	return sessions, nil
}

func connectServer(ctx context.Context, spec ServerSpec) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    metadata.Name,
		Version: metadata.Version,
	}, nil)

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = os.Environ()

	return client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
}

func releaseSessions(sessions []*session) {
	for _, s := range sessions {
		if err := s.conn.Close(); err != nil {
			logrus.WithError(err).WithField("server", s.spec.Name).Warn("failed to close tool server session")
		}
	}
}

// discoverTools lists every server's tools and exposes them to the model
// under namespaced names so servers cannot shadow each other.
func (a *Invoker) discoverTools(ctx context.Context, sessions []*session) (map[string]toolBinding, []llm.ToolDef, error) {
	bindings := make(map[string]toolBinding)
	var defs []llm.ToolDef

	for _, s := range sessions {
		listed, err := s.conn.ListTools(ctx, &mcp.ListToolsParams{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list tools for server %s: %w", s.spec.Name, err)
		}
		for _, tool := range listed.Tools {
			name := s.spec.Name + "__" + tool.Name
			schema := json.RawMessage(`{"type":"object"}`)
			if tool.InputSchema != nil {
				if raw, err := json.Marshal(tool.InputSchema); err == nil {
					schema = raw
				}
			}
			bindings[name] = toolBinding{session: s, tool: tool.Name}
			defs = append(defs, llm.ToolDef{
				Name:        name,
				Description: tool.Description,
				Parameters:  schema,
			})
		}
	}
	return bindings, defs, nil
}

// runLoop issues the charter and target path to the model, dispatches its
// tool calls, and stops at the first final answer or the turn budget.
func (a *Invoker) runLoop(ctx context.Context, targetPath string, bindings map[string]toolBinding, defs []llm.ToolDef) (*Report, error) {
	messages := []llm.Message{
		{Role: "system", Content: charter},
		{Role: "user", Content: targetPath},
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		reply, err := a.client.Chat(ctx, messages, defs)
		if err != nil {
			return nil, fmt.Errorf("agent turn %d failed: %w", turn+1, err)
		}

		if len(reply.ToolCalls) == 0 {
			return parseReport(reply.Content)
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result := a.dispatch(ctx, bindings, call)
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return nil, ErrTurnBudgetExceeded
}

// dispatch executes one tool call. Tool-level failures are reported back to
// the model as text so it can adjust, rather than failing the invocation.
func (a *Invoker) dispatch(ctx context.Context, bindings map[string]toolBinding, call llm.ToolCall) string {
	binding, ok := bindings[call.Function.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("error: invalid tool arguments: %v", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"server": binding.session.spec.Name,
		"tool":   binding.tool,
	}).Debug("dispatching tool call")

	result, err := binding.session.conn.CallTool(ctx, &mcp.CallToolParams{
		Name:      binding.tool,
		Arguments: args,
	})
	if err != nil {
		return fmt.Sprintf("error: tool call failed: %v", err)
	}

	text := contentText(result.Content)
	if result.IsError {
		return "tool error: " + text
	}
	if text == "" {
		return "(no output)"
	}
	return text
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsTurnBudgetError reports whether err is the turn-cap failure.
func IsTurnBudgetError(err error) bool {
	return errors.Is(err, ErrTurnBudgetExceeded)
}
