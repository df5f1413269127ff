package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceforce/mcp-profiler/internal/llm"
)

// scriptedChat replays canned replies, one per turn.
type scriptedChat struct {
	replies []llm.Message
	calls   int
}

func (s *scriptedChat) Chat(_ context.Context, _ []llm.Message, _ []llm.ToolDef) (*llm.Message, error) {
	if s.calls >= len(s.replies) {
		return nil, errors.New("no more scripted replies")
	}
	reply := s.replies[s.calls]
	s.calls++
	return &reply, nil
}

func toolCallReply(name string) llm.Message {
	return llm.Message{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{
			{ID: "call-1", Type: "function", Function: llm.FunctionCall{Name: name, Arguments: "{}"}},
		},
	}
}

func TestRunLoopFinalAnswer(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		toolCallReply("missing__tool"),
		{Role: "assistant", Content: `{"tools":[{"name":"read_file","description":"Reads a file"}],"vulnerabilities":[{"name":"SSRF","description":"d","severity":"medium","confidence":"low"}]}`},
	}}
	inv := &Invoker{client: chat, maxTurns: MaxTurns}

	rep, err := inv.runLoop(context.Background(), "/tmp/repo", map[string]toolBinding{}, nil)
	require.NoError(t, err)
	require.Len(t, rep.Tools, 1)
	require.Len(t, rep.Vulnerabilities, 1)
	assert.Equal(t, "SSRF", rep.Vulnerabilities[0].Name)
	assert.Equal(t, 2, chat.calls)
}

func TestRunLoopTurnBudgetExceeded(t *testing.T) {
	replies := make([]llm.Message, 5)
	for i := range replies {
		replies[i] = toolCallReply("missing__tool")
	}
	inv := &Invoker{client: &scriptedChat{replies: replies}, maxTurns: 3}

	_, err := inv.runLoop(context.Background(), "/tmp/repo", map[string]toolBinding{}, nil)
	require.Error(t, err)
	assert.True(t, IsTurnBudgetError(err))
}

func TestRunLoopMalformedFinalAnswer(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: "assistant", Content: "I could not produce a report."},
	}}
	inv := &Invoker{client: chat, maxTurns: MaxTurns}

	_, err := inv.runLoop(context.Background(), "/tmp/repo", map[string]toolBinding{}, nil)
	assert.Error(t, err)
}

func TestParseReportWithFences(t *testing.T) {
	content := "```json\n{\"tools\":[],\"vulnerabilities\":[{\"name\":\"XXE\",\"description\":\"d\",\"severity\":\"high\",\"confidence\":\"medium\",\"recommendation\":\"r\",\"paths\":[{\"path\":\"a.py\",\"code_snippet\":\"parse(xml)\"}]}]}\n```"

	rep, err := parseReport(content)
	require.NoError(t, err)
	require.Len(t, rep.Vulnerabilities, 1)
	assert.Equal(t, "XXE", rep.Vulnerabilities[0].Name)
	assert.Equal(t, "a.py", rep.Vulnerabilities[0].Paths[0].Path)
}

func TestParseReportEmpty(t *testing.T) {
	_, err := parseReport("")
	assert.Error(t, err)
}

func TestDefaultServers(t *testing.T) {
	servers := DefaultServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "ast-grep", servers[0].Name)
	assert.Equal(t, "xray", servers[1].Name)
	for _, s := range servers {
		assert.Equal(t, "uvx", s.Command)
		assert.NotEmpty(t, s.Args)
	}
}

func TestLoadServersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	content := `servers:
  - name: local-grep
    command: /usr/local/bin/grep-server
    args: ["--stdio"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	servers, err := LoadServersFile(path)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "local-grep", servers[0].Name)
	assert.Equal(t, []string{"--stdio"}, servers[0].Args)
}

func TestLoadServersFileInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServersFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty server list", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("servers: []\n"), 0o644))
		_, err := LoadServersFile(path)
		assert.Error(t, err)
	})

	t.Run("server without command", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("servers:\n  - name: x\n"), 0o644))
		_, err := LoadServersFile(path)
		assert.Error(t, err)
	})
}

func TestNewInvokerDefaults(t *testing.T) {
	inv := NewInvoker(nil, DefaultServers())
	assert.Equal(t, MaxTurns, inv.maxTurns)
	assert.Equal(t, ConnectTimeout, inv.connectTimeout)
	assert.Equal(t, 3*time.Second, inv.settleDelay)
}
