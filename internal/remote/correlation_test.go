package remote

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/channel"
	"github.com/dshills/anaclient/internal/protocol"
)

func noopCompletion(gjson.Result, *protocol.RequestError) *protocol.RequestError { return nil }

func TestPendingTableRegisterAssignsSharedIDs(t *testing.T) {
	t.Parallel()

	var counter atomic.Int64
	first := newPendingTable(&counter)
	second := newPendingTable(&counter)

	a, n, ok := first.register("server.getVersion", noopCompletion)
	require.True(t, ok)
	assert.Equal(t, "0", a.id)
	assert.Equal(t, 1, n)

	b, _, ok := second.register("server.getVersion", noopCompletion)
	require.True(t, ok)
	assert.Equal(t, "1", b.id)
}

func TestPendingTableCloseKeepsRegisteredCalls(t *testing.T) {
	t.Parallel()

	var counter atomic.Int64
	table := newPendingTable(&counter)

	_, _, ok := table.register("analysis.getErrors", noopCompletion)
	require.True(t, ok)

	table.close()

	_, n, ok := table.register("analysis.getErrors", noopCompletion)
	assert.False(t, ok)
	assert.Equal(t, 1, n)

	calls := table.drain()
	require.Len(t, calls, 1)
	assert.Equal(t, "0", calls[0].id)
	assert.Zero(t, table.len())
}

// openSink reports itself open after it has been closed, like a sink read
// just before another goroutine closes it.
type openSink struct {
	*channel.MemorySink
}

func (openSink) IsClosed() bool { return false }

func TestSendRefusesClosedTableEvenWhenSinkLooksOpen(t *testing.T) {
	c := NewClient(newFakeTransport())

	sink := openSink{channel.NewMemorySink()}
	s := &session{sink: sink, pending: newPendingTable(&c.nextID)}
	s.pending.close()

	called := false
	id := c.send(s, protocol.MethodServerGetVersion, nil, func(gjson.Result, *protocol.RequestError) *protocol.RequestError {
		called = true
		return nil
	})

	assert.Empty(t, id)
	assert.Empty(t, sink.Requests())
	assert.Zero(t, s.pending.len())

	c.abandon(s)
	assert.False(t, called)
}
