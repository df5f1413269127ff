package report

import (
	"fmt"
	"strings"
	"time"
)

// Severity levels recognized by the profiler, ordered from most to least
// severe. Every finding carries exactly one of these.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// SeverityOrder is the fixed ordering used for grouping and counting.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// NormalizeSeverity lowercases a severity label and maps anything outside
// the recognized set to info.
func NormalizeSeverity(s string) Severity {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SeverityOrder {
		if sev == known {
			return sev
		}
	}
	return SeverityInfo
}

// Finding categories.
const (
	CategoryMCPSecurityScan = "mcp_security_scan"
	CategoryScanError       = "scan_error"
	CategoryDocumentation   = "documentation"
	CategoryDependencies    = "dependencies"
)

// AffectedFile is one file path implicated by a finding, with the code
// snippet the agent extracted from it.
type AffectedFile struct {
	Path        string `json:"path"`
	CodeSnippet string `json:"code_snippet"`
}

// ToolDescriptor describes one MCP server-side capability discovered by the
// agent.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Finding is one normalized security observation. Findings are built once by
// the orchestrator and never mutated after insertion into a report.
type Finding struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Severity       Severity         `json:"severity"`
	Category       string           `json:"category"`
	Recommendation string           `json:"recommendation,omitempty"`
	Confidence     string           `json:"confidence,omitempty"`
	File           string           `json:"file,omitempty"`
	AffectedFiles  []AffectedFile   `json:"affected_files,omitempty"`
	Tools          []ToolDescriptor `json:"tools,omitempty"`
	ErrorTrace     string           `json:"error_traceback,omitempty"`
}

// SetAffectedFiles records the affected files and mirrors the first path
// into File for single-file consumers.
func (f *Finding) SetAffectedFiles(files []AffectedFile) {
	if len(files) == 0 {
		return
	}
	f.AffectedFiles = files
	f.File = files[0].Path
}

// RepoInfo is the immutable snapshot of provider metadata captured at scan
// start.
type RepoInfo struct {
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	Language      string `json:"language"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	DefaultBranch string `json:"default_branch"`
	CloneURL      string `json:"clone_url"`
}

// ScanMetadata describes the scanner run itself.
type ScanMetadata struct {
	ScannerVersion  string  `json:"scanner_version"`
	ScanType        string  `json:"scan_type"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RepoStatistics is the working-tree snapshot gathered by the statistics
// walker.
type RepoStatistics struct {
	TotalFiles int            `json:"total_files"`
	TotalLines int            `json:"total_lines"`
	FileTypes  map[string]int `json:"file_types"`
}

// Summary holds derived severity counts. TotalFindings always equals the
// number of findings in the report, and the five severity counts sum to it.
type Summary struct {
	TotalFindings int `json:"total_findings"`
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Info          int `json:"info"`
}

// Count returns the count for one severity.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return s.Info
	}
}

// ScanReport is the root aggregate, one per scan invocation. It is owned
// exclusively by that invocation; nothing mutates it after Scan returns.
type ScanReport struct {
	ScanID     string           `json:"scan_id"`
	Timestamp  string           `json:"timestamp"`
	Repository RepoInfo         `json:"repository"`
	Metadata   ScanMetadata     `json:"scan_metadata"`
	MCPTools   []ToolDescriptor `json:"mcp_tools"`
	Findings   []Finding        `json:"findings"`
	Statistics RepoStatistics   `json:"statistics"`
	Summary    Summary          `json:"summary"`
}

// NewScanID builds the deterministic scan identifier from the repository
// full name and a timestamp.
func NewScanID(fullName string, at time.Time) string {
	repoName := strings.ReplaceAll(fullName, "/", "-")
	if repoName == "" {
		repoName = "unknown"
	}
	return fmt.Sprintf("scan-%s-%s", repoName, at.Format("20060102150405"))
}

// ComputeSummary counts findings per severity. Findings are expected to
// carry normalized severities already; anything unrecognized still lands in
// the info bucket so the counts always sum to the finding total.
func ComputeSummary(findings []Finding) Summary {
	s := Summary{TotalFindings: len(findings)}
	for _, f := range findings {
		switch NormalizeSeverity(string(f.Severity)) {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		default:
			s.Info++
		}
	}
	return s
}
