package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"name\": \"織田信長\"}\n```",
			expected: `{"name": "織田信長"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    "  {\"key\": \"value\"}\n",
			expected: `{"key": "value"}`,
		},
		{
			name:     "fence without newline",
			input:    "```{\"key\": \"value\"}```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble is kept",
			input:    "以下が提案です:\n{\"name\": \"勝海舟\"}",
			expected: "以下が提案です:\n{\"name\": \"勝海舟\"}",
		},
		{
			name:     "trailing text is kept",
			input:    "{\"key\": \"value\"}\n\nLet me know!",
			expected: "{\"key\": \"value\"}\n\nLet me know!",
		},
		{
			name:     "array is kept",
			input:    "```json\n[{\"name\": \"a\"}, {\"name\": \"b\"}]\n```",
			expected: `[{"name": "a"}, {"name": "b"}]`,
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanJSONBlock_OnlySingleObjectsDecode(t *testing.T) {
	for _, input := range []string{
		"[{\"name\": \"a\"}, {\"name\": \"b\"}]",
		"{\"name\": \"a\"} and more",
		"here: {\"name\": \"a\"}",
	} {
		var obj map[string]any
		assert.Error(t, json.Unmarshal([]byte(CleanJSONBlock(input)), &obj), input)
	}
}
