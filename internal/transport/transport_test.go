package transport

import (
	"bufio"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/anaclient/internal/protocol"
	"github.com/dshills/anaclient/internal/remote"
)

// engineScript answers the first request with a version and then echoes
// nothing until stdin closes.
const engineScript = `
echo '{"event":"server.connected","params":{"version":"1.9.5","pid":1}}'
read line
echo '{"id":"0","result":{"version":"1.9.5"}}'
echo 'Dart VM crashed' >&2
cat >/dev/null
`

func TestProcessTransportRequiresCommand(t *testing.T) {
	tr := NewProcessTransport(EngineConfig{})
	assert.ErrorIs(t, tr.Start(context.Background()), ErrNoCommand)
	assert.False(t, tr.IsOpen())
	assert.Nil(t, tr.Diagnostics())
	assert.Nil(t, tr.Process())
	assert.NoError(t, tr.Stop())
}

func TestProcessTransportRoundTrip(t *testing.T) {
	requireShell(t)

	tr := NewProcessTransport(EngineConfig{
		Command:     "sh",
		Args:        []string{"-c", engineScript},
		StopTimeout: time.Second,
	})
	c := remote.NewClient(tr)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Stop() })

	assert.True(t, tr.IsOpen())
	assert.ErrorIs(t, tr.Start(context.Background()), ErrEngineRunning)

	got := make(chan string, 1)
	id := c.ServerGetVersion(func(version string, err *protocol.RequestError) {
		if err != nil {
			got <- "error: " + err.Code
			return
		}
		got <- version
	})
	assert.Equal(t, "0", id)

	select {
	case v := <-got:
		assert.Equal(t, "1.9.5", v)
	case <-time.After(5 * time.Second):
		t.Fatal("no response from engine")
	}

	require.NoError(t, c.Stop())
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}
	assert.False(t, tr.IsOpen())
	assert.True(t, tr.Process().HasExited())
}

func TestProcessTransportDiagnostics(t *testing.T) {
	requireShell(t)

	tr := NewProcessTransport(EngineConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "$GREETING" >&2`},
		Env:     map[string]string{"GREETING": "hello from the engine"},
	})
	require.NoError(t, tr.Start(context.Background()))
	t.Cleanup(func() { _ = tr.Stop() })

	scanner := bufio.NewScanner(tr.Diagnostics())
	require.True(t, scanner.Scan())
	assert.Equal(t, "hello from the engine", scanner.Text())

	select {
	case <-tr.Process().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not exit")
	}
	assert.False(t, tr.IsOpen())
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1"}
	assert.Equal(t, base, mergeEnv(base, nil))
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, mergeEnv(base, map[string]string{"C": "3", "B": "2"}))
}
