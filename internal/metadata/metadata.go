package metadata

// Identity reported to MCP servers during the initialize handshake and
// embedded in generated reports.
const (
	Name     = "mcp-profiler"
	Version  = "0.1.0"
	ScanType = "security_analysis"
)
