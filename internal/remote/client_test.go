package remote

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/metrics"
	"github.com/dshills/anaclient/internal/protocol"
)

func TestClientStatus_String(t *testing.T) {
	tests := []struct {
		status   ClientStatus
		expected string
	}{
		{ClientStatusStopped, "stopped"},
		{ClientStatusStarting, "starting"},
		{ClientStatusRunning, "running"},
		{ClientStatusShuttingDown, "shutting down"},
		{ClientStatus(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}

func TestClientStartTwice(t *testing.T) {
	c, _ := startClient(t)

	assert.Equal(t, ClientStatusRunning, c.Status())
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
}

func TestClientStartWithoutTransport(t *testing.T) {
	c := NewClient(nil)
	assert.ErrorIs(t, c.Start(context.Background()), ErrNoTransport)
}

func TestClientStartTransportFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.failStarts(errStartRefused)
	c := NewClient(tr)

	err := c.Start(context.Background())
	require.ErrorIs(t, err, errStartRefused)
	assert.Equal(t, ClientStatusStopped, c.Status())
}

func TestClientRequestWireFormat(t *testing.T) {
	c, tr := startClient(t)

	c.ServerShutdown(nil)

	reqs := tr.waitForRequests(t, 1)
	data, err := protocol.EncodeRequest(reqs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"0","method":"server.shutdown"}`, string(data))
}

func TestClientResponseResolvesCallback(t *testing.T) {
	c, tr := startClient(t)

	var got string
	var gotErr *protocol.RequestError
	calls := 0
	id := c.ServerGetVersion(func(version string, rerr *protocol.RequestError) {
		calls++
		got, gotErr = version, rerr
	})
	require.Equal(t, "0", id)
	assert.Equal(t, 1, c.PendingCount())

	tr.put(`{"id":"0","result":{"version":"1.18.4"}}`)
	tr.settle(t)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "1.18.4", got)
	assert.Nil(t, gotErr)
	assert.Equal(t, 0, c.PendingCount())
	assert.False(t, c.LastRequestTime().IsZero())
	assert.False(t, c.LastResponseTime().IsZero())
}

func TestClientResolvesExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	c, tr := startClient(t, WithMetrics(m))

	calls := 0
	c.ServerGetVersion(func(string, *protocol.RequestError) { calls++ })

	tr.put(`{"id":"0","result":{"version":"1.18.4"}}`)
	tr.put(`{"id":"0","result":{"version":"1.18.4"}}`)
	tr.settle(t)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeUnmatched)))
}

func TestClientIgnoresUnknownResponseID(t *testing.T) {
	c, tr := startClient(t)

	rec := &recorder{}
	c.AddListener(rec)

	calls := 0
	c.ServerGetVersion(func(string, *protocol.RequestError) { calls++ })

	tr.put(`{"id":"99","result":{"version":"1.0.0"}}`)
	tr.settle(t)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, c.PendingCount())
	assert.Empty(t, rec.snapshot().requestErrs)
}

func TestClientPassesRemoteErrorThrough(t *testing.T) {
	c, tr := startClient(t)

	rec := &recorder{}
	c.AddListener(rec)

	var gotErr *protocol.RequestError
	var gotErrors []protocol.AnalysisError
	c.AnalysisGetErrors("/a.dart", func(errs []protocol.AnalysisError, rerr *protocol.RequestError) {
		gotErrors, gotErr = errs, rerr
	})

	tr.put(`{"id":"0","error":{"code":"GET_ERRORS_INVALID_FILE","message":"not analyzed","stackTrace":"#0 x"}}`)
	tr.settle(t)

	require.NotNil(t, gotErr)
	assert.Nil(t, gotErrors)
	assert.Equal(t, "GET_ERRORS_INVALID_FILE", gotErr.Code)
	assert.Equal(t, "not analyzed", gotErr.Message)
	assert.Equal(t, "#0 x", gotErr.StackTrace)

	snap := rec.snapshot()
	require.Len(t, snap.requestErrs, 1)
	assert.Equal(t, "GET_ERRORS_INVALID_FILE", snap.requestErrs[0].Code)
}

func TestClientReportsInvalidServerResponse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	c, tr := startClient(t, WithMetrics(m))

	var gotErr *protocol.RequestError
	c.AnalysisGetErrors("/a.dart", func(_ []protocol.AnalysisError, rerr *protocol.RequestError) {
		gotErr = rerr
	})

	tr.put(`{"id":"0","result":{"errors":[{"severity":"ERROR"}]}}`)
	tr.settle(t)

	require.NotNil(t, gotErr)
	assert.Equal(t, protocol.CodeInvalidServerResponse, gotErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeInvalid)))
}

func TestClientTreatsNullErrorAsAbsent(t *testing.T) {
	c, tr := startClient(t)

	rec := &recorder{}
	c.AddListener(rec)

	var version string
	var gotErr *protocol.RequestError
	calls := 0
	c.ServerGetVersion(func(v string, rerr *protocol.RequestError) {
		version, gotErr = v, rerr
		calls++
	})

	tr.put(`{"id":"0","result":{"version":"1.2.3"},"error":null}`)
	tr.settle(t)

	assert.Equal(t, 1, calls)
	assert.Nil(t, gotErr)
	assert.Equal(t, "1.2.3", version)
	assert.Empty(t, rec.snapshot().requestErrs)
}

func TestClientReportsMalformedErrorMember(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"string", `"error":"boom"`},
		{"no code", `"error":{"message":"something failed"}`},
		{"numeric code", `"error":{"code":500,"message":"something failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m, err := metrics.New(reg)
			require.NoError(t, err)

			c, tr := startClient(t, WithMetrics(m))

			rec := &recorder{}
			c.AddListener(rec)

			var version string
			var gotErr *protocol.RequestError
			c.ServerGetVersion(func(v string, rerr *protocol.RequestError) {
				version, gotErr = v, rerr
			})

			tr.put(`{"id":"0",` + tt.body + `}`)
			tr.settle(t)

			require.NotNil(t, gotErr)
			assert.Equal(t, protocol.CodeInvalidServerResponse, gotErr.Code)
			assert.NotEmpty(t, gotErr.Message)
			assert.Empty(t, version)
			assert.Empty(t, rec.snapshot().requestErrs)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeInvalid)))
			assert.Equal(t, 0.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeError)))
		})
	}
}

func TestClientDecodesSuccessfulResult(t *testing.T) {
	c, tr := startClient(t)

	var got []protocol.AnalysisError
	var gotErr *protocol.RequestError
	c.AnalysisGetErrors("/a.dart", func(errs []protocol.AnalysisError, rerr *protocol.RequestError) {
		got, gotErr = errs, rerr
	})

	tr.put(`{"id":"0","result":{"errors":[{"severity":"WARNING","type":"HINT","code":"unused_import",` +
		`"message":"Unused import.","location":{"file":"/a.dart","offset":7,"length":12,"startLine":1,"startColumn":8}}]}}`)
	tr.settle(t)

	require.Nil(t, gotErr)
	require.Len(t, got, 1)
	assert.Equal(t, "unused_import", got[0].Code)
	assert.Equal(t, "/a.dart", got[0].Location.File)
	assert.Equal(t, 7, got[0].Location.Offset)
}

func TestClientSendsEmptyCollectionsForNil(t *testing.T) {
	c, tr := startClient(t)

	c.AnalysisSetAnalysisRoots(nil, nil, nil, nil)
	c.AnalysisSetPriorityFiles(nil, nil)

	reqs := tr.waitForRequests(t, 2)
	first, err := protocol.EncodeRequest(reqs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"0","method":"analysis.setAnalysisRoots","params":{"included":[],"excluded":[],"packageRoots":{}}}`, string(first))

	second, err := protocol.EncodeRequest(reqs[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","method":"analysis.setPriorityFiles","params":{"files":[]}}`, string(second))
}

func TestClientDeliversNotificationsInRegistrationOrder(t *testing.T) {
	c, tr := startClient(t)

	var order []string
	first := &recorder{name: "first", log: &order}
	second := &recorder{name: "second", log: &order}
	c.AddListener(first)
	c.AddListener(second)

	tr.put(`{"event":"server.status","params":{"analysis":{"isAnalyzing":true}}}`)
	tr.put(`{"event":"analysis.errors","params":{"file":"/a.dart","errors":[]}}`)
	tr.settle(t)

	assert.Equal(t, []string{"first:status", "second:status", "first:errors", "second:errors"}, order)

	snap := first.snapshot()
	require.Len(t, snap.statuses, 1)
	require.NotNil(t, snap.statuses[0].Analysis)
	assert.True(t, snap.statuses[0].Analysis.IsAnalyzing)
	require.Len(t, snap.fileErrors, 1)
	assert.Equal(t, "/a.dart", snap.fileErrors[0].File)
}

func TestClientConcurrentCallsGetUniqueIDs(t *testing.T) {
	const callers = 100

	c, tr := startClient(t)

	ids := make([]string, callers)
	resolved := make([]atomic.Int32, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = c.ServerGetVersion(func(string, *protocol.RequestError) { resolved[i].Add(1) })
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, callers)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "id %s assigned twice", id)
		seen[id] = true
	}
	assert.Equal(t, callers, c.PendingCount())
	assert.Len(t, tr.requests(), callers)

	for _, id := range ids {
		tr.put(`{"id":"` + id + `","result":{"version":"1.0.0"}}`)
	}
	tr.settle(t)

	for i := range resolved {
		assert.Equal(t, int32(1), resolved[i].Load(), "callback count for id %s", ids[i])
	}
	assert.Zero(t, c.PendingCount())
}

func TestClientHandlesMessagesInArrivalOrder(t *testing.T) {
	c, tr := startClient(t)

	var order []string
	c.AddListener(&recorder{name: "listener", log: &order})

	c.ServerGetVersion(func(v string, _ *protocol.RequestError) { order = append(order, "response:"+v) })
	c.ServerGetVersion(func(v string, _ *protocol.RequestError) { order = append(order, "response:"+v) })

	tr.put(`{"id":"1","result":{"version":"2.0.0"}}`)
	tr.put(`{"event":"analysis.errors","params":{"file":"/a.dart","errors":[]}}`)
	tr.put(`{"id":"0","result":{"version":"1.0.0"}}`)
	tr.put(`{"event":"server.status","params":{"analysis":{"isAnalyzing":false}}}`)
	tr.settle(t)

	assert.Equal(t, []string{
		"response:2.0.0",
		"listener:errors",
		"response:1.0.0",
		"listener:status",
	}, order)
}

func TestClientRemoveListener(t *testing.T) {
	c, tr := startClient(t)

	rec := &recorder{}
	c.AddListener(rec)
	c.RemoveListener(rec)

	tr.put(`{"event":"server.status","params":{}}`)
	tr.settle(t)

	assert.Empty(t, rec.snapshot().statuses)
}

type panickingListener struct {
	BaseListener
}

func (panickingListener) ServerStatus(protocol.ServerStatus) {
	panic("listener bug")
}

func TestClientIsolatesPanickingListener(t *testing.T) {
	c, tr := startClient(t)

	rec := &recorder{}
	c.AddListener(&panickingListener{})
	c.AddListener(rec)

	tr.put(`{"event":"server.status","params":{}}`)
	tr.put(`{"event":"server.status","params":{}}`)
	tr.settle(t)

	assert.Len(t, rec.snapshot().statuses, 2)
}

func TestClientRecoversFromPanickingCallback(t *testing.T) {
	c, tr := startClient(t)

	c.ServerGetVersion(func(string, *protocol.RequestError) { panic("callback bug") })

	var second string
	c.ServerGetVersion(func(v string, _ *protocol.RequestError) { second = v })

	tr.put(`{"id":"0","result":{"version":"1.0.0"}}`)
	tr.put(`{"id":"1","result":{"version":"1.0.1"}}`)
	tr.settle(t)

	assert.Equal(t, "1.0.1", second)
	assert.Equal(t, 0, c.PendingCount())
}

func TestClientIgnoresUnknownAndMalformedNotifications(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	c, tr := startClient(t, WithMetrics(m))

	rec := &recorder{}
	c.AddListener(rec)

	tr.put(`{"event":"analysis.somethingNew","params":{}}`)
	tr.put(`{"event":"analysis.errors","params":{"errors":[]}}`)
	tr.put(`{"params":{}}`)
	tr.put(`{"event":"server.status","params":{}}`)
	tr.settle(t)

	snap := rec.snapshot()
	assert.Empty(t, snap.fileErrors)
	assert.Len(t, snap.statuses, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(protocol.EventAnalysisErrors)))
}

func TestClientShutdown(t *testing.T) {
	c, tr := startClient(t)

	alive := &aliveLog{}
	c.AddStatusListener(alive)

	result := make(chan error, 1)
	go func() {
		result <- c.Shutdown(context.Background())
	}()

	reqs := tr.waitForRequests(t, 1)
	assert.Equal(t, protocol.MethodServerShutdown, reqs[0].Method)
	assert.Equal(t, ClientStatusShuttingDown, c.Status())

	tr.put(`{"id":"` + reqs[0].ID + `"}`)

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.Equal(t, ClientStatusStopped, c.Status())
	assert.True(t, c.StopRequested())
	assert.Equal(t, []bool{false}, alive.get())
	_, stops := tr.counts()
	assert.Equal(t, 1, stops)
	assert.True(t, tr.memSink().IsClosed())

	// Requests after the connection closed are dropped.
	called := false
	id := c.ServerGetVersion(func(string, *protocol.RequestError) { called = true })
	assert.Empty(t, id)
	assert.Len(t, tr.requests(), 1)

	waitDone(t, c)
	assert.False(t, called)
}

func TestClientShutdownRefused(t *testing.T) {
	c, tr := startClient(t)

	result := make(chan error, 1)
	go func() {
		result <- c.Shutdown(context.Background())
	}()

	reqs := tr.waitForRequests(t, 1)
	tr.put(`{"id":"` + reqs[0].ID + `","error":{"code":"SERVER_ERROR","message":"busy"}}`)

	select {
	case err := <-result:
		var rerr *protocol.RequestError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "SERVER_ERROR", rerr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.Equal(t, ClientStatusRunning, c.Status())
	assert.False(t, c.StopRequested())
	assert.False(t, tr.memSink().IsClosed())
}

func TestClientShutdownContextExpires(t *testing.T) {
	c, _ := startClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, c.Shutdown(ctx), context.DeadlineExceeded)
}

func TestClientShutdownNotStarted(t *testing.T) {
	c := NewClient(newFakeTransport())
	assert.ErrorIs(t, c.Shutdown(context.Background()), ErrNotStarted)
}

func TestClientDropsCallsOnceShutdownCompletes(t *testing.T) {
	c, tr := startClient(t)

	late := make(chan string, 1)
	lateCalled := false
	c.ServerShutdown(func(rerr *protocol.RequestError) {
		assert.Nil(t, rerr)
		late <- c.ServerGetVersion(func(string, *protocol.RequestError) { lateCalled = true })
	})

	reqs := tr.waitForRequests(t, 1)
	tr.put(`{"id":"` + reqs[0].ID + `"}`)

	select {
	case id := <-late:
		assert.Empty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback did not run")
	}

	waitDone(t, c)
	assert.False(t, lateCalled)
	assert.Len(t, tr.requests(), 1)
	assert.Zero(t, c.PendingCount())
}

func TestClientStopAbandonsPendingCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	c, tr := startClient(t, WithMetrics(m))

	var mu sync.Mutex
	var codes []string
	for i := 0; i < 3; i++ {
		c.AnalysisGetErrors("/a.dart", func(_ []protocol.AnalysisError, rerr *protocol.RequestError) {
			mu.Lock()
			defer mu.Unlock()
			codes = append(codes, rerr.Code)
		})
	}

	require.NoError(t, c.Stop())
	waitDone(t, c)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{protocol.CodeServerTerminated, protocol.CodeServerTerminated, protocol.CodeServerTerminated}, codes)
	assert.Equal(t, ClientStatusStopped, c.Status())
	assert.Equal(t, 0, c.PendingCount())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Responses.WithLabelValues(metrics.OutcomeAbandoned)))

	_, stops := tr.counts()
	assert.Equal(t, 1, stops)
	require.NoError(t, c.Stop())
}

func TestClientEndOfStreamAbandonsAndReportsDeath(t *testing.T) {
	c, tr := startClient(t)

	alive := &aliveLog{}
	c.AddStatusListener(alive)

	var gotErr *protocol.RequestError
	c.ServerGetVersion(func(_ string, rerr *protocol.RequestError) { gotErr = rerr })

	tr.kill()
	waitDone(t, c)

	require.NotNil(t, gotErr)
	assert.Equal(t, protocol.CodeServerTerminated, gotErr.Code)
	assert.Equal(t, ClientStatusStopped, c.Status())
	assert.False(t, c.StopRequested())
	assert.Equal(t, []bool{false}, alive.get())
}

func TestClientRestartKeepsIDsUnique(t *testing.T) {
	c, tr := startClient(t)

	first := c.ServerGetVersion(nil)
	require.NoError(t, c.Stop())
	waitDone(t, c)

	require.NoError(t, c.Start(context.Background()))
	second := c.ServerGetVersion(nil)

	assert.Equal(t, "0", first)
	assert.Equal(t, "1", second)
	assert.Equal(t, 1, c.PendingCount())

	starts, _ := tr.counts()
	assert.Equal(t, 2, starts)
}

func TestClientForwardsCrashReports(t *testing.T) {
	tr := newFakeTransport()
	tr.diag = strings.NewReader("Observatory listening\nUnhandled exception:\nBad state: boom\n#0      main (file:///bin/server.dart:3:5)\n")

	var lines atomic.Int32
	c := NewClient(tr, WithDiagnosticsPassthrough(func(string) { lines.Add(1) }))
	rec := &recorder{}
	c.AddListener(rec)

	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Stop() })

	require.Eventually(t, func() bool { return len(rec.snapshot().crashes) == 1 }, 2*time.Second, time.Millisecond)

	crash := rec.snapshot().crashes[0]
	assert.False(t, crash.IsFatal)
	assert.Equal(t, "Bad state: boom", crash.Message)
	assert.Equal(t, "#0      main (file:///bin/server.dart:3:5)", crash.StackTrace)
	assert.Equal(t, int32(4), lines.Load())
}

func TestClientWatcherReportsUnreachableEngine(t *testing.T) {
	c, tr := startClient(t, WithWatchInterval(10*time.Millisecond))

	alive := &aliveLog{}
	c.AddStatusListener(alive)

	tr.setOpen(false)

	require.Eventually(t, func() bool { return c.Status() == ClientStatusStopped }, 2*time.Second, time.Millisecond)
	waitDone(t, c)
	assert.Equal(t, []bool{false}, alive.get())
}

func TestClientTracer(t *testing.T) {
	var mu sync.Mutex
	var sent []string
	var received []string
	tracer := TraceFuncs{
		OnRequest: func(req protocol.Request) {
			mu.Lock()
			defer mu.Unlock()
			sent = append(sent, req.Method)
		},
		OnMessage: func(msg gjson.Result) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, msg.Raw)
		},
	}

	c, tr := startClient(t, WithTracer(tracer))

	c.ServerGetVersion(nil)
	tr.put(`{"id":"0","result":{"version":"1.0.0"}}`)
	tr.settle(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{protocol.MethodServerGetVersion}, sent)
	assert.Equal(t, []string{`{"id":"0","result":{"version":"1.0.0"}}`}, received)
}

func TestClientStatusListenerSeesStart(t *testing.T) {
	tr := newFakeTransport()
	c := NewClient(tr)

	alive := &aliveLog{}
	c.AddStatusListener(alive)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop())
	waitDone(t, c)

	assert.Equal(t, []bool{true, false}, alive.get())
}
