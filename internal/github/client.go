// Package github is the repository provider glue: metadata lookup over the
// GitHub REST API and working-tree materialization via git clone.
package github

import (
	"context"
	"fmt"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	gogithub "github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"

	"github.com/traceforce/mcp-profiler/internal/report"
)

// Client wraps one authenticated GitHub API client. It is constructed once
// per CLI invocation and passed to every collaborator that needs it.
type Client struct {
	api   *gogithub.Client
	token string
}

// NewClient creates a client authenticated with the given personal access
// token.
func NewClient(token string) *Client {
	return &Client{
		api:   gogithub.NewClient(nil).WithAuthToken(token),
		token: token,
	}
}

// ValidateToken reports whether the token can authenticate against the API.
func (c *Client) ValidateToken(ctx context.Context) bool {
	_, _, err := c.api.Users.Get(ctx, "")
	return err == nil
}

// ParseRepoRef extracts owner and repository name from the supported
// reference forms:
//
//	owner/repo
//	https://github.com/owner/repo[.git]
//	git@github.com:owner/repo[.git]
func ParseRepoRef(ref string) (owner, name string, err error) {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "git@github.com:")
	ref = strings.TrimPrefix(ref, "https://github.com/")
	ref = strings.TrimPrefix(ref, "http://github.com/")
	ref = strings.TrimSuffix(ref, ".git")

	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf(
			"invalid repository reference %q: expected owner/repo or https://github.com/owner/repo", ref)
	}
	return parts[0], parts[1], nil
}

// RepoInfo fetches the repository metadata snapshot embedded in scan reports.
func (c *Client) RepoInfo(ctx context.Context, owner, name string) (report.RepoInfo, error) {
	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return report.RepoInfo{}, fmt.Errorf("failed to access repository %s/%s: %w", owner, name, err)
	}

	info := report.RepoInfo{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		Language:      repo.GetLanguage(),
		DefaultBranch: repo.GetDefaultBranch(),
		CloneURL:      repo.GetCloneURL(),
	}
	if created := repo.GetCreatedAt(); !created.IsZero() {
		info.CreatedAt = created.Format("2006-01-02T15:04:05Z07:00")
	}
	if updated := repo.GetUpdatedAt(); !updated.IsZero() {
		info.UpdatedAt = updated.Format("2006-01-02T15:04:05Z07:00")
	}
	return info, nil
}

// Clone materializes the repository working tree in a fresh temp directory
// and returns its path. The authenticated URL form allows private repos. On
// failure the partially created directory is removed.
func (c *Client) Clone(ctx context.Context, owner, name string) (string, error) {
	dir, err := os.MkdirTemp("", "mcp-scan-")
	if err != nil {
		return "", fmt.Errorf("failed to create scan directory: %w", err)
	}

	authURL := fmt.Sprintf("https://%s@github.com/%s/%s.git", c.token, owner, name)
	logrus.WithFields(logrus.Fields{"repo": owner + "/" + name, "dir": dir}).Debug("cloning repository")

	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: authURL}); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("failed to clone repository: %w", err)
	}
	return dir, nil
}

// Cleanup removes a cloned working tree.
func Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		logrus.WithError(err).WithField("dir", path).Warn("failed to remove cloned repository")
	}
}
