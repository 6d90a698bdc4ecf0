package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "fenced with language tag",
			reply: "Here you go:\n```python\nresult = 1 + 1\n```\nDone.",
			want:  "result = 1 + 1",
		},
		{
			name:  "fenced without tag",
			reply: "```\nSELECT * FROM users\n```",
			want:  "SELECT * FROM users",
		},
		{
			name:  "sql tag",
			reply: "```sql\nSELECT id FROM orders\n```",
			want:  "SELECT id FROM orders",
		},
		{
			name:  "no fence returns trimmed reply",
			reply: "  result = 42  ",
			want:  "result = 42",
		},
		{
			name:  "only first block is taken",
			reply: "```\nfirst\n```\ntext\n```\nsecond\n```",
			want:  "first",
		},
		{
			name:  "multiline body",
			reply: "```python\nx = frames.head(df, 5)\nresult = x\n```",
			want:  "x = frames.head(df, 5)\nresult = x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.reply))
		})
	}
}

func TestHasCodeFence(t *testing.T) {
	assert.True(t, HasCodeFence("```\nx\n```"))
	assert.False(t, HasCodeFence("no code here"))
	assert.False(t, HasCodeFence("unterminated ```"))
}

func TestStripFirstFence(t *testing.T) {
	reply := "Intro.\n```python\nresult = 1\n```\nOutro."
	assert.Equal(t, "Intro.\n\nOutro.", stripFirstFence(reply))
	assert.Equal(t, "plain text", stripFirstFence("plain text"))
}
