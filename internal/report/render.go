package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Output formats supported by Render.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Render serializes a completed scan report into each requested format under
// outputDir, creating the directory if needed. It returns a map from format
// to the written file path and never mutates the report.
func Render(rep *ScanReport, formats []string, outputDir string) (map[string]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	written := make(map[string]string)
	for _, format := range formats {
		switch strings.ToLower(format) {
		case FormatJSON:
			path := filepath.Join(outputDir, rep.ScanID+".json")
			data, err := MarshalJSON(rep)
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("failed to write JSON report: %w", err)
			}
			written[FormatJSON] = path
		case FormatMarkdown:
			path := filepath.Join(outputDir, rep.ScanID+".md")
			if err := os.WriteFile(path, []byte(BuildMarkdown(rep)), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write markdown report: %w", err)
			}
			written[FormatMarkdown] = path
		default:
			return nil, fmt.Errorf("unsupported report format: %s", format)
		}
	}
	return written, nil
}

// MarshalJSON renders the report as 2-space indented JSON. The output is
// deterministic for a given report.
func MarshalJSON(rep *ScanReport) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan report: %w", err)
	}
	return data, nil
}

// ParseJSON parses a previously rendered JSON report.
func ParseJSON(data []byte) (*ScanReport, error) {
	var rep ScanReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse scan report: %w", err)
	}
	return &rep, nil
}

// BuildMarkdown renders the human-readable report document.
func BuildMarkdown(rep *ScanReport) string {
	var md []string

	md = append(md, "# Security Scan Report\n")
	md = append(md, fmt.Sprintf("**Scan ID:** %s  ", orNA(rep.ScanID)))
	md = append(md, fmt.Sprintf("**Timestamp:** %s  \n", orNA(rep.Timestamp)))

	md = append(md, "## Repository Information\n")
	md = append(md, fmt.Sprintf("- **Name:** %s", orNA(rep.Repository.FullName)))
	md = append(md, fmt.Sprintf("- **Description:** %s", orNA(rep.Repository.Description)))
	md = append(md, fmt.Sprintf("- **Language:** %s", orNA(rep.Repository.Language)))
	md = append(md, fmt.Sprintf("- **Stars:** %d", rep.Repository.Stars))
	md = append(md, fmt.Sprintf("- **Forks:** %d", rep.Repository.Forks))
	md = append(md, fmt.Sprintf("- **Default Branch:** %s\n", orNA(rep.Repository.DefaultBranch)))

	if len(rep.MCPTools) > 0 {
		md = append(md, "## MCP Server Functions\n")
		md = append(md, fmt.Sprintf("Found **%d** MCP server function(s)/tool(s):\n", len(rep.MCPTools)))
		md = append(md, "| Function Name | Description |")
		md = append(md, "|---------------|-------------|")
		for _, tool := range rep.MCPTools {
			md = append(md, fmt.Sprintf("| `%s` | %s |", orNA(tool.Name), orNA(tool.Description)))
		}
		md = append(md, "")
	}

	md = append(md, "## Scan Summary\n")
	md = append(md, fmt.Sprintf("**Total Findings:** %d\n", rep.Summary.TotalFindings))
	md = append(md, "| Severity | Count |")
	md = append(md, "|----------|-------|")
	md = append(md, fmt.Sprintf("| Critical | %d |", rep.Summary.Critical))
	md = append(md, fmt.Sprintf("| High     | %d |", rep.Summary.High))
	md = append(md, fmt.Sprintf("| Medium   | %d |", rep.Summary.Medium))
	md = append(md, fmt.Sprintf("| Low      | %d |", rep.Summary.Low))
	md = append(md, fmt.Sprintf("| Info     | %d |\n", rep.Summary.Info))

	md = append(md, "## Repository Statistics\n")
	md = append(md, fmt.Sprintf("- **Total Files:** %d", rep.Statistics.TotalFiles))
	md = append(md, fmt.Sprintf("- **Total Lines:** %d\n", rep.Statistics.TotalLines))

	if len(rep.Statistics.FileTypes) > 0 {
		md = append(md, "### File Types Distribution\n")
		md = append(md, "| Extension | Count |")
		md = append(md, "|-----------|-------|")
		for _, ft := range topFileTypes(rep.Statistics.FileTypes, 10) {
			md = append(md, fmt.Sprintf("| %s | %d |", ft.ext, ft.count))
		}
		md = append(md, "")
	}

	if len(rep.Findings) > 0 {
		md = append(md, "## Findings\n")
		for _, severity := range SeverityOrder {
			var group []Finding
			for _, f := range rep.Findings {
				if NormalizeSeverity(string(f.Severity)) == severity {
					group = append(group, f)
				}
			}
			if len(group) == 0 {
				continue
			}
			md = append(md, fmt.Sprintf("### %s Severity\n", capitalize(string(severity))))
			for _, f := range group {
				md = append(md, renderFinding(f)...)
			}
		}
	} else {
		md = append(md, "## Findings\n")
		md = append(md, "No findings detected.\n")
	}

	md = append(md, "---")
	md = append(md, fmt.Sprintf("\n*Report generated by MCP Security Profiler v%s*", rep.Metadata.ScannerVersion))

	return strings.Join(md, "\n")
}

func renderFinding(f Finding) []string {
	var md []string
	md = append(md, fmt.Sprintf("#### %s: %s\n", orNA(f.ID), orDefault(f.Title, "No title")))
	md = append(md, fmt.Sprintf("**Description:** %s  ", orNA(f.Description)))
	md = append(md, fmt.Sprintf("**Category:** %s  ", orNA(f.Category)))

	if f.Confidence != "" {
		md = append(md, fmt.Sprintf("**Confidence:** %s  ", f.Confidence))
	}
	if f.File != "" {
		md = append(md, fmt.Sprintf("**File:** `%s`  ", f.File))
	}

	if len(f.AffectedFiles) > 0 {
		md = append(md, "\n**Affected Files:**")
		for i, af := range f.AffectedFiles {
			md = append(md, fmt.Sprintf("\n%d. `%s`", i+1, orDefault(af.Path, "Unknown")))
			if af.CodeSnippet != "" {
				md = append(md, "```")
				md = append(md, af.CodeSnippet)
				md = append(md, "```")
			}
		}
	}

	if len(f.Tools) > 0 {
		md = append(md, "\n**MCP Tools Found:**")
		for _, tool := range f.Tools {
			md = append(md, fmt.Sprintf("- **%s**: %s", tool.Name, tool.Description))
		}
	}

	if f.Recommendation != "" {
		md = append(md, fmt.Sprintf("\n**Recommendation:** %s  ", f.Recommendation))
	}

	md = append(md, "")
	return md
}

type fileType struct {
	ext   string
	count int
}

// topFileTypes returns at most n extensions ordered by descending count,
// ties broken by extension name for stable output.
func topFileTypes(types map[string]int, n int) []fileType {
	sorted := make([]fileType, 0, len(types))
	for ext, count := range types {
		sorted = append(sorted, fileType{ext: ext, count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].ext < sorted[j].ext
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
