package anthropic

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(Config{}, logger)
	require.Error(t, err)

	p, err := New(Config{APIKey: "sk-ant-test"}, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.config.Model)
	assert.Equal(t, 3, p.config.ProviderConfig.MaxRetries)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"score": 72}`,
			want: `{"score": 72}`,
		},
		{
			name: "object wrapped in prose",
			in:   "Here is the result:\n{\"score\": 72}\nLet me know if you need more.",
			want: `{"score": 72}`,
		},
		{
			name: "array wrapped in a code fence",
			in:   "```json\n[{\"question\": \"Why Go?\"}]\n```",
			want: `[{"question": "Why Go?"}]`,
		},
		{
			name: "no JSON at all",
			in:   "I cannot answer that.",
			want: "",
		},
		{
			name: "closing brace before opening",
			in:   "} {",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("", 5))
}
