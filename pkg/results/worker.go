package results

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// EventType tags a worker event.
type EventType string

// Event types. Every request ends with exactly one complete or error event.
const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Request is one chunked parse job.
type Request struct {
	// ID is echoed on every event; a UUID is assigned when empty.
	ID        string
	Bindings  []json.RawMessage
	Columns   []string
	MaxRows   int
	ChunkSize int
}

// Event reports progress or the terminal result of a Request.
type Event struct {
	ID       string
	Type     EventType
	Progress Progress
	Table    *core.ParsedTable
	Err      error
	Message  string
}

// eventBuffer bounds the per-request event channel. Progress events are
// dropped when the consumer falls behind; the last slot is kept for the
// terminal event so the worker never blocks on delivery.
const eventBuffer = 64

type job struct {
	ctx    context.Context
	req    Request
	events chan Event
}

// Worker parses binding arrays on one dedicated goroutine, one request at a
// time, in submission order.
type Worker struct {
	logger *slog.Logger
	jobs   chan job
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorker starts a worker goroutine. Call Close to stop it.
func NewWorker(logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Worker{
		logger: logger,
		jobs:   make(chan job),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Submit queues req and returns its event stream. The channel is closed
// after the terminal event. Cancelling ctx stops the job at the next chunk
// boundary with an error event.
func (w *Worker) Submit(ctx context.Context, req Request) <-chan Event {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	events := make(chan Event, eventBuffer)

	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		events <- Event{ID: req.ID, Type: EventError, Err: errWorkerClosed, Message: errWorkerClosed.Error()}
		close(events)
		return events
	}

	select {
	case w.jobs <- job{ctx: ctx, req: req, events: events}:
	case <-w.done:
		events <- Event{ID: req.ID, Type: EventError, Err: errWorkerClosed, Message: errWorkerClosed.Error()}
		close(events)
	case <-ctx.Done():
		events <- Event{ID: req.ID, Type: EventError, Err: ctx.Err(), Message: ctx.Err().Error()}
		close(events)
	}
	return events
}

// Close stops the worker after the job in progress, if any.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
}

var errWorkerClosed = &ParseError{Reason: "parse worker is closed"}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.jobs:
			w.run(j)
		case <-w.done:
			return
		}
	}
}

func (w *Worker) run(j job) {
	defer close(j.events)
	req := j.req
	start := time.Now()

	chunk := req.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	total := len(req.Bindings)
	limit := total
	if req.MaxRows > 0 && req.MaxRows < limit {
		limit = req.MaxRows
	}

	w.logger.Debug("parse task started",
		slog.String("id", req.ID), slog.Int("rows", total), slog.Int("chunk_size", chunk))

	fail := func(err error) {
		w.logger.Debug("parse task failed", slog.String("id", req.ID), slog.String("error", err.Error()))
		j.events <- Event{ID: req.ID, Type: EventError, Err: err, Message: err.Error()}
	}

	rows := make([]core.Row, 0, limit)
	for offset := 0; offset < limit; offset += chunk {
		if err := j.ctx.Err(); err != nil {
			fail(err)
			return
		}
		end := min(offset+chunk, limit)
		parsed, err := decodeBindings(req.Bindings[offset:end], req.Columns, offset)
		if err != nil {
			fail(err)
			return
		}
		rows = append(rows, parsed...)

		percent := 100.0
		if limit > 0 {
			percent = float64(len(rows)) / float64(limit) * 100
		}
		w.progress(j.events, Event{
			ID:   req.ID,
			Type: EventProgress,
			Progress: Progress{
				RowsParsed: len(rows),
				TotalRows:  total,
				Percent:    percent,
				Elapsed:    time.Since(start),
			},
		})
		runtime.Gosched()
	}
	if err := j.ctx.Err(); err != nil {
		fail(err)
		return
	}

	j.events <- Event{ID: req.ID, Type: EventComplete, Table: buildTable(req.Columns, rows, total, req.MaxRows)}
	w.logger.Debug("parse task complete",
		slog.String("id", req.ID), slog.Int("rows", len(rows)), slog.Duration("elapsed", time.Since(start)))
}

// progress delivers ev unless doing so would take the slot reserved for the
// terminal event. Only this goroutine sends, so len is a safe lower bound.
func (w *Worker) progress(events chan Event, ev Event) {
	if len(events) < cap(events)-1 {
		events <- ev
	}
}
