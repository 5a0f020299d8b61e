package log_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"veilchat/internal/log"
)

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	b, err := log.NewWriter(&buf, "notice")
	require.NoError(t, err)

	l := b.GetLogger("test")
	l.Debug("hidden")
	l.Notice("shown %d", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "NOTI test: shown 1")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := log.New("", "LOUD", false)
	require.Error(t, err)
	require.False(t, log.ValidLevel("LOUD"))
	require.True(t, log.ValidLevel("debug"))
}

func TestNew_FileAndRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	b, err := log.New(path, "INFO", false)
	require.NoError(t, err)

	b.GetLogger("relay").Info("first")
	require.NoError(t, b.Rotate())
	b.GetGoLogger("http", "WARNING").Print("second")
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "relay: first")
	require.Contains(t, string(data), "WARN http: second")
}

func TestNew_Disabled(t *testing.T) {
	b, err := log.New("", "DEBUG", true)
	require.NoError(t, err)
	b.GetLogger("quiet").Error("nowhere")
	require.NoError(t, b.Close())
}
