package scanner

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/traceforce/mcp-profiler/internal/report"
)

// ignorePatterns are path substrings excluded from statistics gathering.
var ignorePatterns = []string{
	".git",
	"__pycache__",
	"node_modules",
	".env",
	"venv",
	".venv",
	"dist",
	"build",
}

// GatherStatistics walks the full working tree and counts files, lines and
// extensions. Line counts are best-effort: undecodable files contribute zero
// lines but still count toward the file and extension totals.
func GatherStatistics(root string) report.RepoStatistics {
	stats := report.RepoStatistics{FileTypes: map[string]int{}}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() || shouldIgnore(rel) {
			return nil
		}

		stats.TotalFiles++

		ext := filepath.Ext(path)
		if ext == "" {
			ext = "no_extension"
		}
		stats.FileTypes[ext]++

		stats.TotalLines += countLines(path)
		return nil
	})

	return stats
}

func shouldIgnore(relPath string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range ignorePatterns {
		if strings.Contains(normalized, pattern) {
			return true
		}
	}
	return false
}

// countLines counts text lines in a file. Unreadable or binary files count
// as zero lines.
func countLines(path string) int {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return 0
	}
	if bytes.IndexByte(data, 0) != -1 {
		return 0
	}
	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}
	return lines
}
