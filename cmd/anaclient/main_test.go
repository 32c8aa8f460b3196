package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/protocol"
	"github.com/dshills/anaclient/internal/remote"
)

func TestRootsOf(t *testing.T) {
	roots := rootsOf([]string{"/b/x.dart", "/a/y.dart", "/b/z.dart"})
	assert.Equal(t, []string{"/a", "/b"}, roots)
}

func TestPrintErrors(t *testing.T) {
	var buf bytes.Buffer
	printErrors(&buf, []protocol.AnalysisError{
		{
			Severity: "WARNING",
			Message:  "Unused import.",
			Code:     "unused_import",
			Location: protocol.Location{File: "/a/main.dart", Offset: 40, StartLine: 3, StartColumn: 8},
		},
		{
			Severity: "ERROR",
			Message:  "Undefined name 'x'.",
			Location: protocol.Location{File: "/a/main.dart", Offset: 10, StartLine: 1, StartColumn: 11},
		},
	})

	assert.Equal(t,
		"/a/main.dart:1:11: error: Undefined name 'x'.\n"+
			"/a/main.dart:3:8: warning: Unused import. [unused_import]\n",
		buf.String())
}

func TestTracerPrintsBothDirections(t *testing.T) {
	var buf bytes.Buffer
	tr := newTracer(&buf)

	tr.RequestSent(protocol.Request{ID: "0", Method: protocol.MethodServerGetVersion})
	tr.MessageReceived(gjson.Parse(`{"id":"0","result":{"version":"1.9.5"}}`))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "--> {"))
	assert.Contains(t, out, `"method": "server.getVersion"`)
	assert.Contains(t, out, "<-- {")
	assert.Contains(t, out, `"version": "1.9.5"`)
}

func TestAwaitClosedConnection(t *testing.T) {
	_, err := await(context.Background(), func(func(string, *protocol.RequestError)) string {
		return ""
	})
	assert.ErrorIs(t, err, remote.ErrClosed)
}

func TestAwaitRemoteError(t *testing.T) {
	err := awaitDone(context.Background(), func(cb func(*protocol.RequestError)) string {
		cb(&protocol.RequestError{Code: protocol.CodeInvalidParameter, Message: "bad root"})
		return "7"
	})

	var rerr *protocol.RequestError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, protocol.CodeInvalidParameter, rerr.Code)
}

func TestAwaitContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := await(ctx, func(func(int, *protocol.RequestError)) string { return "3" })
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeEngine answers server.getVersion and then server.shutdown.
const fakeEngine = `read line; echo '{"id":"0","result":{"version":"1.9.5"}}'; read line; echo '{"id":"1"}'; exit 0`

func TestVersionCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	cfg := `
[engine]
command = "sh"
args = ["-c", '''` + fakeEngine + `''']
stopTimeout = "1s"

[client]
versionCheck = false
watchInterval = "0s"

[logging]
level = "error"
format = "json"
`
	path := filepath.Join(t.TempDir(), "anaclient.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--config", path, "version"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cmd.ExecuteContext(ctx), errOut.String())
	assert.Equal(t, "1.9.5\n", out.String())
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anaclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  command: \"\"\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "version"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.command")
}
