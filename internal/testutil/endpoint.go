package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Stall controls where a scripted response blocks until the client goes away.
type Stall int

// Stall points.
const (
	StallNone            Stall = iota
	StallBeforeHeaders         // block before writing the status line
	StallAfterFirstChunk       // write Body[:FirstChunk], flush, then block
)

// Response scripts what the fake endpoint sends.
type Response struct {
	Status      int
	ContentType string
	Body        string
	Delay       time.Duration
	Stall       Stall
	FirstChunk  int
}

// Request is what the fake endpoint received.
type Request struct {
	Method      string
	Query       string
	Update      string
	Accept      string
	ContentType string
	RawQuery    string
}

// Endpoint is an httptest server speaking just enough SPARQL protocol for
// executor and session tests.
type Endpoint struct {
	server *httptest.Server

	mu       sync.Mutex
	response Response
	requests []Request
}

// NewEndpoint starts a fake endpoint that answers every request with resp.
// The server is closed on test cleanup.
func NewEndpoint(t testing.TB, resp Response) *Endpoint {
	t.Helper()
	e := &Endpoint{response: resp}

	router := chi.NewRouter()
	router.Get("/sparql", e.handle)
	router.Post("/sparql", e.handle)

	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

// URL returns the endpoint URL.
func (e *Endpoint) URL() string {
	return e.server.URL + "/sparql"
}

// SetResponse replaces the scripted response.
func (e *Endpoint) SetResponse(resp Response) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.response = resp
}

// Requests returns a copy of the requests received so far.
func (e *Endpoint) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Request(nil), e.requests...)
}

func (e *Endpoint) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	e.mu.Lock()
	e.requests = append(e.requests, Request{
		Method:      r.Method,
		Query:       r.Form.Get("query"),
		Update:      r.Form.Get("update"),
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
		RawQuery:    r.URL.RawQuery,
	})
	resp := e.response
	e.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if resp.Stall == StallBeforeHeaders {
		<-r.Context().Done()
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.Stall == StallAfterFirstChunk {
		n := resp.FirstChunk
		if n <= 0 || n > len(resp.Body) {
			n = len(resp.Body) / 2
		}
		_, _ = w.Write([]byte(resp.Body[:n]))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
		return
	}

	_, _ = w.Write([]byte(resp.Body))
}
