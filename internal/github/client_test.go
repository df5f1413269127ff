package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		name  string
		ref   string
		owner string
		repo  string
	}{
		{"short form", "acme/widget", "acme", "widget"},
		{"https url", "https://github.com/acme/widget", "acme", "widget"},
		{"https url with .git", "https://github.com/acme/widget.git", "acme", "widget"},
		{"http url", "http://github.com/acme/widget", "acme", "widget"},
		{"ssh form", "git@github.com:acme/widget.git", "acme", "widget"},
		{"surrounding whitespace", "  acme/widget \n", "acme", "widget"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoRef(tc.ref)
			require.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}

func TestParseRepoRefInvalid(t *testing.T) {
	for _, ref := range []string{
		"",
		"just-a-name",
		"a/b/c",
		"https://github.com/acme",
		"/widget",
		"acme/",
	} {
		t.Run(ref, func(t *testing.T) {
			_, _, err := ParseRepoRef(ref)
			assert.Error(t, err)
		})
	}
}

func TestCleanupMissingPath(t *testing.T) {
	// Cleanup of an empty or nonexistent path must not panic.
	Cleanup("")
	Cleanup(t.TempDir() + "/does-not-exist")
}
