package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "<script>", want: "&lt;script&gt;"},
		{in: `a"b'c&d`, want: "a&#34;b&#39;c&amp;d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in))
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 4) // warn

	l.Info("hidden")
	l.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "k=v")
}

func TestNewAccessLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")

	l, closer, err := NewAccessLog(path)
	require.NoError(t, err)
	l.Info("login attempt", "result", "SUCCESS")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "SUCCESS", rec["result"])
	assert.NotEmpty(t, rec["run_id"])
}

func TestNewAccessLog_EmptyPathDiscards(t *testing.T) {
	l, closer, err := NewAccessLog("")
	require.NoError(t, err)
	l.Info("nothing")
	assert.NoError(t, closer.Close())
}
