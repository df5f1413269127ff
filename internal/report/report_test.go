package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("CRITICAL"))
	assert.Equal(t, SeverityHigh, NormalizeSeverity(" High "))
	assert.Equal(t, SeverityInfo, NormalizeSeverity("info"))
	assert.Equal(t, SeverityInfo, NormalizeSeverity(""))
	assert.Equal(t, SeverityInfo, NormalizeSeverity("unknown-label"))
}

func TestNewScanID(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "scan-acme-widget-20250314092653", NewScanID("acme/widget", at))
	assert.Equal(t, "scan-unknown-20250314092653", NewScanID("", at))
}

func TestComputeSummary(t *testing.T) {
	findings := []Finding{
		{ID: "MCP-001", Severity: SeverityHigh},
		{ID: "MCP-002", Severity: SeverityHigh},
		{ID: "MCP-003", Severity: SeverityCritical},
		{ID: "SEC-001", Severity: SeverityLow},
		{ID: "INFO-001", Severity: SeverityInfo},
		{ID: "X-001", Severity: Severity("bogus")},
	}

	summary := ComputeSummary(findings)

	assert.Equal(t, len(findings), summary.TotalFindings)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 2, summary.High)
	assert.Equal(t, 0, summary.Medium)
	assert.Equal(t, 1, summary.Low)
	// Unrecognized severities land in the info bucket.
	assert.Equal(t, 2, summary.Info)

	total := 0
	for _, sev := range SeverityOrder {
		total += summary.Count(sev)
	}
	assert.Equal(t, summary.TotalFindings, total)
}

func TestComputeSummaryEmpty(t *testing.T) {
	summary := ComputeSummary(nil)
	assert.Equal(t, Summary{}, summary)
}

func TestSetAffectedFiles(t *testing.T) {
	var f Finding
	f.SetAffectedFiles(nil)
	assert.Empty(t, f.File)
	assert.Nil(t, f.AffectedFiles)

	f.SetAffectedFiles([]AffectedFile{
		{Path: "src/server.py", CodeSnippet: "eval(payload)"},
		{Path: "src/utils.py", CodeSnippet: "os.system(cmd)"},
	})
	assert.Equal(t, "src/server.py", f.File)
	assert.Len(t, f.AffectedFiles, 2)
}
