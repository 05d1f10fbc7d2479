package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, closeFn, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Str("kind", "unreachable").Msg("kept")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "dropped")
	require.Contains(t, string(data), `"kind":"unreachable"`)
	require.Contains(t, string(data), `"level":"warn"`)
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(Config{Level: "loud", Format: "json"})
	require.Error(t, err)
	_, _, err = New(Config{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestPrettyJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewPrettyJSONWriter(&buf))
	logger.Info().Int("turn", 3).Msg("move")

	out := buf.String()
	require.Contains(t, out, "\n  \"turn\": 3")
	require.True(t, strings.HasSuffix(out, "}\n"))

	buf.Reset()
	n, err := NewPrettyJSONWriter(&buf).Write([]byte("plain text\n"))
	require.NoError(t, err)
	require.Equal(t, len("plain text\n"), n)
	require.Equal(t, "plain text\n", buf.String())
}
