package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
)

const readBufferSize = 32 * 1024

// Config configures an Executor.
type Config struct {
	// Client sends requests. Defaults to a client without its own timeout;
	// deadlines come from the token.
	Client *http.Client
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
	// MaxBodyBytes caps the response body; 0 means unlimited.
	MaxBodyBytes int64
	// OnState observes state transitions.
	OnState func(State)
	// OnProgress receives the running body byte count after each read.
	OnProgress func(bytesRead int64)
}

// Executor runs dispatch plans.
type Executor struct {
	client       *http.Client
	logger       *slog.Logger
	metrics      *Metrics
	maxBodyBytes int64
	onState      func(State)
	onProgress   func(int64)
}

// New creates an executor.
func New(cfg Config) *Executor {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		client:       cfg.Client,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		maxBodyBytes: cfg.MaxBodyBytes,
		onState:      cfg.OnState,
		onProgress:   cfg.OnProgress,
	}
}

// run carries the per-execution bookkeeping.
type run struct {
	e        *Executor
	ctx      context.Context
	start    time.Time
	streamed bool
	read     int64
	timedOut atomic.Bool
}

// Execute sends plan and reads the full response body.
//
// The token scopes the request; a nil token gets a standalone one derived
// from ctx. Cancelling ctx cancels the token, and so does a positive timeout
// when it fires. A timed-out token stays cancelled after Execute returns.
func (e *Executor) Execute(ctx context.Context, plan *dispatch.Plan, timeout time.Duration, token *Token) Outcome {
	if token == nil {
		token = NewToken(ctx)
	}
	stop := context.AfterFunc(ctx, token.Cancel)
	defer stop()

	r := &run{e: e, ctx: token.Context(), start: time.Now()}
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			r.timedOut.Store(true)
			token.Cancel()
		})
		defer timer.Stop()
	}

	e.setState(StateIdle)
	out := r.execute(plan)
	out.Elapsed = time.Since(r.start)
	out.BytesRead = r.read

	switch out.Kind {
	case OutcomeSuccess:
		e.setState(StateSuccess)
	case OutcomeCancelled:
		e.setState(StateCancelled)
	default:
		e.setState(StateFailed)
	}
	e.metrics.observe(out)
	e.logger.Debug("execution finished",
		slog.String("outcome", out.Kind.String()),
		slog.Uint64("epoch", token.Epoch()),
		slog.Int("status", out.StatusCode),
		slog.Int64("bytes", out.BytesRead),
		slog.Duration("elapsed", out.Elapsed))
	return out
}

func (r *run) execute(plan *dispatch.Plan) Outcome {
	if plan == nil {
		return failed(&Error{Kind: ErrorNetwork, Message: "no plan"})
	}
	req, err := plan.NewRequest(r.ctx)
	if err != nil {
		return failed(&Error{Kind: ErrorNetwork, Message: "cannot build request", Err: err})
	}

	r.e.setState(StateSent)
	r.e.logger.Debug("sending request", slog.String("method", plan.Method), slog.String("url", plan.URL))
	resp, err := r.e.client.Do(req)
	if err != nil {
		return r.transportFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := r.readBody(resp.Body)
	if err != nil {
		var execErr *Error
		if errors.As(err, &execErr) {
			return failed(execErr)
		}
		out := r.transportFailure(err)
		out.StatusCode = resp.StatusCode
		return out
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.e.logger.Warn("endpoint returned error status", slog.Int("status", resp.StatusCode))
		out := failed(&Error{Kind: ErrorHTTP, StatusCode: resp.StatusCode, Message: string(body)})
		out.StatusCode = resp.StatusCode
		out.ContentType = resp.Header.Get("Content-Type")
		return out
	}

	return Outcome{
		Kind:        OutcomeSuccess,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
}

func (r *run) readBody(body io.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !r.streamed {
				r.streamed = true
				r.e.setState(StateStreaming)
			}
			r.read += int64(n)
			if r.e.maxBodyBytes > 0 && r.read > r.e.maxBodyBytes {
				return nil, &Error{
					Kind:    ErrorTooLarge,
					Message: fmt.Sprintf("response body exceeds %d bytes", r.e.maxBodyBytes),
				}
			}
			out = append(out, buf[:n]...)
			if r.e.onProgress != nil {
				r.e.onProgress(r.read)
			}
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// transportFailure maps a client or read error onto an outcome. Token
// cancellation and the deadline map to Cancelled before the first body byte
// and to Aborted afterwards.
func (r *run) transportFailure(err error) Outcome {
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		timedOut := r.timedOut.Load()
		if !r.streamed {
			return Outcome{Kind: OutcomeCancelled, TimedOut: timedOut}
		}
		out := failed(&Error{Kind: ErrorAborted, Message: "execution cancelled while streaming the response", Err: ctxErr})
		out.TimedOut = timedOut
		return out
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failed(&Error{Kind: ErrorTimeout, Message: "request timed out", Err: err})
	}
	if r.streamed {
		return failed(&Error{Kind: ErrorNetwork, Message: "connection lost while streaming the response", Err: err})
	}
	return failed(&Error{Kind: ErrorNetwork, Message: "request failed", Err: err})
}

func (e *Executor) setState(s State) {
	if e.onState != nil {
		e.onState(s)
	}
}

func failed(err *Error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}
