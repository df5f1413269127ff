// Package scanner drives one full repository scan: agent invocation, static
// heuristic checks, statistics gathering and severity accounting.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/traceforce/mcp-profiler/internal/agent"
	"github.com/traceforce/mcp-profiler/internal/metadata"
	"github.com/traceforce/mcp-profiler/internal/report"
)

// AgentInvoker is the contract the orchestrator needs from the agent
// invocation adapter.
type AgentInvoker interface {
	Invoke(ctx context.Context, targetPath string) (*agent.Report, error)
}

// Scanner scans exactly one cloned repository start-to-finish. A Scanner is
// not reused across scans.
type Scanner struct {
	repoPath string
	repoInfo report.RepoInfo
	agent    AgentInvoker
}

// New creates a scanner for one cloned working tree.
func New(repoPath string, repoInfo report.RepoInfo, invoker AgentInvoker) *Scanner {
	return &Scanner{
		repoPath: repoPath,
		repoInfo: repoInfo,
		agent:    invoker,
	}
}

// Scan performs the security scan and always returns a completed report:
// agent failures degrade to a single sentinel finding and never abort the
// remaining steps.
func (s *Scanner) Scan(ctx context.Context) *report.ScanReport {
	start := time.Now()

	rep := &report.ScanReport{
		ScanID:     report.NewScanID(s.repoInfo.FullName, start),
		Timestamp:  start.Format(time.RFC3339),
		Repository: s.repoInfo,
		Metadata: report.ScanMetadata{
			ScannerVersion: metadata.Version,
			ScanType:       metadata.ScanType,
		},
		MCPTools: []report.ToolDescriptor{},
		Findings: []report.Finding{},
	}

	findings, tools := s.runAgentScan(ctx)
	rep.MCPTools = tools
	rep.Findings = append(rep.Findings, findings...)
	rep.Findings = append(rep.Findings, s.runBasicChecks()...)

	rep.Statistics = GatherStatistics(s.repoPath)
	rep.Summary = report.ComputeSummary(rep.Findings)
	rep.Metadata.DurationSeconds = math.Round(time.Since(start).Seconds()*100) / 100

	return rep
}

// runAgentScan invokes the agent and converts its report into findings and
// tool descriptors. Any failure is downgraded to the MCP-ERROR-001 sentinel
// so the scan continues.
func (s *Scanner) runAgentScan(ctx context.Context) ([]report.Finding, []report.ToolDescriptor) {
	findings := []report.Finding{}
	tools := []report.ToolDescriptor{}

	agentReport, err := s.agent.Invoke(ctx, s.repoPath)
	if err != nil {
		logrus.WithError(err).Warn("MCP agent scan failed")
		findings = append(findings, report.Finding{
			ID:             "MCP-ERROR-001",
			Title:          "MCP Security Scan Error",
			Description:    fmt.Sprintf("Failed to run MCP security scan: %v", err),
			Severity:       report.SeverityInfo,
			Category:       report.CategoryScanError,
			Recommendation: "Check MCP configuration and try again",
			ErrorTrace:     errorTrace(err),
		})
		return findings, tools
	}

	for i, vuln := range agentReport.Vulnerabilities {
		finding := report.Finding{
			ID:             fmt.Sprintf("MCP-%03d", i+1),
			Title:          vuln.Name,
			Description:    vuln.Description,
			Severity:       report.NormalizeSeverity(vuln.Severity),
			Category:       report.CategoryMCPSecurityScan,
			Recommendation: vuln.Recommendation,
			Confidence:     vuln.Confidence,
		}
		if len(vuln.Paths) > 0 {
			affected := make([]report.AffectedFile, 0, len(vuln.Paths))
			for _, p := range vuln.Paths {
				affected = append(affected, report.AffectedFile{
					Path:        p.Path,
					CodeSnippet: p.CodeSnippet,
				})
			}
			finding.SetAffectedFiles(affected)
		}
		findings = append(findings, finding)
	}

	for _, fn := range agentReport.Tools {
		tools = append(tools, report.ToolDescriptor{
			Name:        fn.Name,
			Description: fn.Description,
		})
	}

	return findings, tools
}

// errorTrace flattens the error chain into a diagnostic trace for offline
// debugging.
func errorTrace(err error) string {
	var lines []string
	for err != nil {
		lines = append(lines, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(lines, "\ncaused by: ")
}
