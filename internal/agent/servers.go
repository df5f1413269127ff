package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerSpec describes one stdio tool-server subprocess the agent connects
// to for the duration of a single invocation.
type ServerSpec struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// DefaultServers returns the fixed tool-server set: a structural code search
// server (ast-grep) and an attack-surface mapping server (xray), both run
// out of uvx.
func DefaultServers() []ServerSpec {
	return []ServerSpec{
		{
			Name:    "ast-grep",
			Command: "uvx",
			Args:    []string{"--from", "git+https://github.com/ast-grep/ast-grep-mcp", "ast-grep-server"},
		},
		{
			Name:    "xray",
			Command: "uvx",
			Args:    []string{"--from", "git+https://github.com/srijanshukla18/xray", "xray-mcp"},
		},
	}
}

type serversFile struct {
	Servers []ServerSpec `yaml:"servers"`
}

// LoadServersFile parses a YAML tool-server override file of the form:
//
//	servers:
//	  - name: ast-grep
//	    command: uvx
//	    args: ["--from", "...", "ast-grep-server"]
func LoadServersFile(path string) ([]ServerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read servers file: %w", err)
	}

	var parsed serversFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse servers file: %w", err)
	}
	if len(parsed.Servers) == 0 {
		return nil, fmt.Errorf("servers file %s defines no servers", path)
	}
	for _, s := range parsed.Servers {
		if s.Name == "" || s.Command == "" {
			return nil, fmt.Errorf("servers file %s: every server needs a name and a command", path)
		}
	}
	return parsed.Servers, nil
}
