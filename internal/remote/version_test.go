package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/anaclient/internal/protocol"
)

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name    string
		version string
		ok      bool
		reason  string
	}{
		{"lower bound is inclusive", "1.9.0", true, ""},
		{"inside range", "1.18.4", true, ""},
		{"prefixed", "v1.10.0", true, ""},
		{"too old", "1.8.9", false, "older than 1.9.0"},
		{"upper bound is exclusive", "2.0.0", false, "not older than 2.0.0"},
		{"too new", "2.1.0", false, "not older than 2.0.0"},
		{"garbage", "banana", false, "not a semantic version"},
		{"empty", "", false, "not a semantic version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := checkCompatible(tt.version, "1.9.0", "2.0.0")
			if tt.ok {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.version, verr.Version)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Contains(t, verr.Error(), tt.reason)
		})
	}
}

func TestCheckCompatibleOpenBounds(t *testing.T) {
	assert.Nil(t, checkCompatible("0.0.1", "", ""))
	assert.Nil(t, checkCompatible("99.0.0", "1.0.0", ""))
	assert.NotNil(t, checkCompatible("0.9.0", "1.0.0", ""))
}

func TestVersionGateHoldsUntilAccepted(t *testing.T) {
	c, tr := startClient(t, WithVersionCheck("1.9.0", "2.0.0"))

	reqs := tr.waitForRequests(t, 1)
	require.Equal(t, protocol.MethodServerGetVersion, reqs[0].Method)
	require.Equal(t, "0", reqs[0].ID)

	c.AnalysisSetPriorityFiles([]string{"/a.dart"}, nil)
	c.AnalysisGetErrors("/a.dart", nil)
	assert.Len(t, tr.requests(), 1, "requests are held while the version is unknown")

	tr.put(`{"id":"0","result":{"version":"1.18.4"}}`)
	tr.settle(t)

	reqs = tr.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, protocol.MethodAnalysisSetPriorityFiles, reqs[1].Method)
	assert.Equal(t, protocol.MethodAnalysisGetErrors, reqs[2].Method)

	c.ServerGetVersion(nil)
	assert.Len(t, tr.requests(), 4)
	assert.Equal(t, ClientStatusRunning, c.Status())
}

func TestVersionGateRejectsIncompatibleEngine(t *testing.T) {
	c, tr := startClient(t, WithVersionCheck("1.9.0", "2.0.0"))

	rec := &recorder{}
	c.AddListener(rec)

	tr.waitForRequests(t, 1)

	var held *protocol.RequestError
	c.AnalysisGetErrors("/a.dart", func(_ []protocol.AnalysisError, rerr *protocol.RequestError) {
		held = rerr
	})

	tr.put(`{"id":"0","result":{"version":"2.1.0"}}`)
	tr.settle(t)

	require.NotNil(t, held)
	assert.Equal(t, protocol.CodeIncompatibleServerVersion, held.Code)

	snap := rec.snapshot()
	assert.Equal(t, []string{"2.1.0"}, snap.incompatible)

	reqs := tr.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, protocol.MethodServerShutdown, reqs[1].Method)
	assert.True(t, c.StopRequested())
	assert.Equal(t, ClientStatusShuttingDown, c.Status())

	// Later requests fail locally too.
	var later *protocol.RequestError
	c.EditSortMembers("/a.dart", func(_ protocol.SourceFileEdit, rerr *protocol.RequestError) {
		later = rerr
	})
	tr.settle(t)
	require.NotNil(t, later)
	assert.Equal(t, protocol.CodeIncompatibleServerVersion, later.Code)
	assert.Len(t, tr.requests(), 2)

	// The engine accepts the shutdown.
	tr.put(`{"id":"` + reqs[1].ID + `"}`)
	waitDone(t, c)
	assert.Equal(t, ClientStatusStopped, c.Status())
}

func TestVersionGateRejectsWhenVersionUnavailable(t *testing.T) {
	c, tr := startClient(t, WithVersionCheck("1.9.0", "2.0.0"))

	rec := &recorder{}
	c.AddListener(rec)

	tr.waitForRequests(t, 1)
	tr.put(`{"id":"0","error":{"code":"UNKNOWN_REQUEST","message":"no"}}`)
	tr.settle(t)

	assert.Equal(t, []string{""}, rec.snapshot().incompatible)
	reqs := tr.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, protocol.MethodServerShutdown, reqs[1].Method)
}
