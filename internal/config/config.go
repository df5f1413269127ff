// Package config manages the persisted profiler configuration: a single JSON
// file in the user's home directory holding the GitHub token.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = ".mcp-profiler"
	configFileName = "config.json"
)

type fileData struct {
	GitHubToken string `json:"github_token,omitempty"`
}

// Store persists and retrieves the GitHub credential on local disk.
type Store struct {
	dir  string
	file string
}

// NewStore creates a store rooted in the user's home directory, creating the
// config directory if absent.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(home, configDirName))
}

// NewStoreAt creates a store rooted at dir. Used directly by tests.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Store{dir: dir, file: filepath.Join(dir, configFileName)}, nil
}

// Path returns the location of the config file.
func (s *Store) Path() string {
	return s.file
}

// SaveToken persists the GitHub token, restricting the file to owner
// read/write after every write.
func (s *Store) SaveToken(token string) error {
	data := s.load()
	data.GitHubToken = token

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(s.file, encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(s.file, 0o600)
}

// Token returns the stored GitHub token, or empty if none is configured.
func (s *Store) Token() string {
	return s.load().GitHubToken
}

// IsConfigured reports whether a token has been saved.
func (s *Store) IsConfigured() bool {
	return s.Token() != ""
}

// load reads the config file. A missing or corrupt file is treated as empty.
func (s *Store) load() fileData {
	var data fileData
	raw, err := os.ReadFile(s.file)
	if err != nil {
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fileData{}
	}
	return data
}
