package agent

import (
	"encoding/json"
	"fmt"

	"github.com/traceforce/mcp-profiler/internal/llm"
)

// Function is one MCP server capability enumerated by the agent.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VulnerablePath is one affected file with the code snippet the agent
// extracted.
type VulnerablePath struct {
	Path        string `json:"path"`
	CodeSnippet string `json:"code_snippet"`
}

// Vulnerability is one issue identified by the agent.
type Vulnerability struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Paths          []VulnerablePath `json:"paths"`
	Recommendation string           `json:"recommendation"`
	Severity       string           `json:"severity"`
	Confidence     string           `json:"confidence"`
}

// Report is the structured result of one agent invocation: the enumerated
// tool list and the vulnerability list, returned together so the caller
// assembles its view from a single value.
type Report struct {
	Tools           []Function      `json:"tools"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}

// parseReport decodes the agent's final message into a Report, tolerating
// markdown fences around the JSON payload.
func parseReport(content string) (*Report, error) {
	payload := llm.ExtractJSON(content)
	if payload == "" {
		return nil, fmt.Errorf("agent returned no JSON payload")
	}

	var rep Report
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return nil, fmt.Errorf("malformed agent report: %w", err)
	}
	return &rep, nil
}
