package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"tools":[]}`,
			want:    `{"tools":[]}`,
		},
		{
			name:    "fenced object",
			content: "```json\n{\"tools\":[]}\n```",
			want:    `{"tools":[]}`,
		},
		{
			name:    "object with surrounding prose",
			content: "Here is the report:\n{\"tools\":[]}\nLet me know if you need more.",
			want:    `{"tools":[]}`,
		},
		{
			name:    "array outermost",
			content: "```\n[{\"a\":1},{\"a\":2}]\n```",
			want:    `[{"a":1},{"a":2}]`,
		},
		{
			name:    "object containing brackets",
			content: `{"items":[1,2,3]}`,
			want:    `{"items":[1,2,3]}`,
		},
		{
			name:    "no json at all",
			content: "```\nplain text\n```",
			want:    "plain text",
		},
		{
			name:    "empty",
			content: "",
			want:    "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.content))
		})
	}
}

func TestNewClientFromEnvRequiresModel(t *testing.T) {
	_, err := NewClientFromEnv("")
	assert.Error(t, err)
}

func TestNewClientFromEnvUnsupportedModel(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")
	_, err := NewClientFromEnv("claude-sonnet")
	assert.Error(t, err)
}

func TestNewClientFromEnvCompatibleServer(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1/")
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv("llama3.1")
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", client.baseURL)
	assert.Equal(t, "llama3.1", client.Model())
}
