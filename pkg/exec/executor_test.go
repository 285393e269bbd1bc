package exec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/internal/testutil"
	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
)

const selectJSON = `{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://example.org/a"}}]}}`

func mustPlan(t *testing.T, endpoint string) *dispatch.Plan {
	t.Helper()
	plan, err := dispatch.BuildPlan("SELECT ?s WHERE { ?s ?p ?o } LIMIT 1", endpoint, dispatch.FormatAuto)
	require.NoError(t, err)
	return plan
}

func TestExecute_Success(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{
		ContentType: dispatch.MIMESPARQLJSON,
		Body:        selectJSON,
	})

	var (
		mu     sync.Mutex
		states []State
	)
	e := New(Config{
		Logger: testutil.NewTestLogger(t),
		OnState: func(s State) {
			mu.Lock()
			defer mu.Unlock()
			states = append(states, s)
		},
	})

	out := e.Execute(context.Background(), mustPlan(t, endpoint.URL()), 5*time.Second, nil)
	require.Equal(t, OutcomeSuccess, out.Kind, "err: %v", out.Failure())

	assert.Equal(t, selectJSON, string(out.Body))
	assert.Equal(t, dispatch.MIMESPARQLJSON, out.ContentType)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, int64(len(selectJSON)), out.BytesRead)
	assert.NoError(t, out.Failure())
	assert.Equal(t, []State{StateIdle, StateSent, StateStreaming, StateSuccess}, states)

	reqs := endpoint.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, dispatch.AcceptTabular, reqs[0].Accept)
}

func TestExecute_UpdateIsPosted(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{Status: http.StatusNoContent})
	plan, err := dispatch.BuildPlan("CLEAR GRAPH <http://example.org/g>", endpoint.URL(), dispatch.FormatAuto)
	require.NoError(t, err)

	out := New(Config{}).Execute(context.Background(), plan, 0, nil)
	require.Equal(t, OutcomeSuccess, out.Kind)

	reqs := endpoint.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "CLEAR GRAPH <http://example.org/g>", reqs[0].Update)
}

func TestExecute_HTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		rejected  bool
		serverErr bool
	}{
		{"bad request", http.StatusBadRequest, "Parse error: line 1, unexpected '}'", true, false},
		{"unavailable", http.StatusServiceUnavailable, "<html><body>Service Unavailable</body></html>", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := testutil.NewEndpoint(t, testutil.Response{Status: tt.status, ContentType: "text/plain", Body: tt.body})

			out := New(Config{}).Execute(context.Background(), mustPlan(t, endpoint.URL()), time.Second, nil)
			require.Equal(t, OutcomeFailed, out.Kind)
			require.NotNil(t, out.Err)

			assert.Equal(t, ErrorHTTP, out.Err.Kind)
			assert.Equal(t, tt.status, out.Err.StatusCode)
			assert.Equal(t, tt.body, out.Err.Message)
			assert.Equal(t, tt.rejected, out.Err.QueryRejected())
			assert.Equal(t, tt.serverErr, out.Err.ServerFault())
			assert.False(t, out.Err.Retryable())
		})
	}
}

func TestExecute_CancelBeforeFirstByte(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{Stall: testutil.StallBeforeHeaders})

	token := NewToken(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		token.Cancel()
	}()

	out := New(Config{}).Execute(context.Background(), mustPlan(t, endpoint.URL()), 0, token)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.Nil(t, out.Err)
	assert.False(t, out.TimedOut)
}

func TestExecute_TimeoutBeforeFirstByte(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{Stall: testutil.StallBeforeHeaders})

	token := NewToken(context.Background())
	out := New(Config{}).Execute(context.Background(), mustPlan(t, endpoint.URL()), 50*time.Millisecond, token)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.True(t, out.TimedOut)
	assert.False(t, token.Valid(), "the timeout cancels the caller's token")
}

func TestExecute_TimeoutMidStream(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{
		ContentType: dispatch.MIMESPARQLJSON,
		Body:        selectJSON,
		Stall:       testutil.StallAfterFirstChunk,
		FirstChunk:  10,
	})

	tracker := NewTracker()
	token := tracker.Begin(context.Background())
	out := New(Config{}).Execute(context.Background(), mustPlan(t, endpoint.URL()), 50*time.Millisecond, token)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, ErrorAborted, out.Err.Kind)
	assert.True(t, out.TimedOut)
	assert.False(t, token.Valid())
	assert.True(t, tracker.IsCurrent(token), "a timeout does not replace the current token")
}

func TestExecute_TimeoutNotFired(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{ContentType: dispatch.MIMESPARQLJSON, Body: selectJSON})

	token := NewToken(context.Background())
	out := New(Config{}).Execute(context.Background(), mustPlan(t, endpoint.URL()), 5*time.Second, token)
	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.False(t, out.TimedOut)
	assert.True(t, token.Valid(), "the timer is stopped once the body is read")
}

func TestExecute_CancelMidStream(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{
		ContentType: dispatch.MIMESPARQLJSON,
		Body:        selectJSON,
		Stall:       testutil.StallAfterFirstChunk,
		FirstChunk:  10,
	})

	token := NewToken(context.Background())
	e := New(Config{
		OnProgress: func(int64) { token.Cancel() },
	})

	out := e.Execute(context.Background(), mustPlan(t, endpoint.URL()), 0, token)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, ErrorAborted, out.Err.Kind)
	assert.Positive(t, out.BytesRead)
}

func TestExecute_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/sparql"
	server.Close()

	out := New(Config{}).Execute(context.Background(), mustPlan(t, url), time.Second, nil)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, ErrorNetwork, out.Err.Kind)
	assert.True(t, out.Err.Retryable())
}

func TestExecute_TooLarge(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{ContentType: dispatch.MIMESPARQLJSON, Body: selectJSON})

	out := New(Config{MaxBodyBytes: 16}).Execute(context.Background(), mustPlan(t, endpoint.URL()), time.Second, nil)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, ErrorTooLarge, out.Err.Kind)
	assert.Nil(t, out.Body)
}

func TestExecute_ParentContextCancels(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{Stall: testutil.StallBeforeHeaders})
	tracker := NewTracker()

	ctx, cancel := context.WithCancel(context.Background())
	token := tracker.Begin(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	out := New(Config{}).Execute(ctx, mustPlan(t, endpoint.URL()), 0, token)
	assert.Equal(t, OutcomeCancelled, out.Kind)
	assert.False(t, token.Valid())
}

func TestMetrics(t *testing.T) {
	endpoint := testutil.NewEndpoint(t, testutil.Response{ContentType: dispatch.MIMESPARQLJSON, Body: selectJSON})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	e := New(Config{Metrics: metrics})

	e.Execute(context.Background(), mustPlan(t, endpoint.URL()), time.Second, nil)
	e.Execute(context.Background(), mustPlan(t, endpoint.URL()), time.Second, nil)

	endpoint.SetResponse(testutil.Response{Status: http.StatusBadRequest, Body: "no"})
	e.Execute(context.Background(), mustPlan(t, endpoint.URL()), time.Second, nil)

	assert.InDelta(t, 2, promtest.ToFloat64(metrics.executions.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(metrics.executions.WithLabelValues("failed_http")), 0)
	assert.Equal(t, 2, promtest.CollectAndCount(metrics.executions))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.duration))
}
