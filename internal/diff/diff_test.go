package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnified(t *testing.T) {
	before := []byte("line one\nthe positive case\nline three\n")
	after := []byte("line one\nthe negative case\nline three\n")

	patch := Unified("dir/a.json", before, after, 0)

	assert.True(t, strings.HasPrefix(patch, "--- a/dir/a.json\n+++ b/dir/a.json\n"), "unexpected header: %q", patch)
	assert.Contains(t, patch, "-the positive case\n")
	assert.Contains(t, patch, "+the negative case\n")
	assert.Contains(t, patch, " line one\n")
}

func TestUnified_IdenticalInputIsEmpty(t *testing.T) {
	content := []byte("same\ncontent\n")
	assert.Empty(t, Unified("f.txt", content, content, 0))
}

func TestUnified_ContextLimitsUnchangedLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("filler\n")
	}
	before := []byte(b.String() + "old\n")
	after := []byte(b.String() + "new\n")

	patch := Unified("f.txt", before, after, 1)
	assert.Equal(t, 1, strings.Count(patch, " filler\n"))
}

func TestSplitLinesKeepNL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"trailing newline", "a\nb\n", []string{"a\n", "b\n"}},
		{"no trailing newline", "a\nb", []string{"a\n", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a\r\n", "b\r\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLinesKeepNL(tt.input))
		})
	}
}
