// Package session runs queries end to end: pre-flight analysis and
// capability validation, dispatch, execution and parsing. A Session keeps
// at most one query in flight; starting a new one cancels the previous one,
// and outcomes of superseded queries are discarded.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapsparql/pkg/analyze"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
	"github.com/leapstack-labs/leapsparql/pkg/exec"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register capability rules
	"github.com/leapstack-labs/leapsparql/pkg/results"
)

// ErrSuperseded is returned by Run when a newer Run started before this one
// finished. Its outcome is discarded.
var ErrSuperseded = errors.New("query superseded by a newer query")

// ErrCancelled is returned by Run when the query was cancelled before the
// first response byte.
var ErrCancelled = errors.New("query cancelled")

// Request is one query attempt.
type Request struct {
	Query    string
	Endpoint string
	Format   dispatch.Format
	// Timeout of zero disables the deadline.
	Timeout time.Duration
}

// Preflight holds the advisory checks run before dispatch.
type Preflight struct {
	Estimate    analyze.SizeEstimate `json:"estimate"`
	Diagnostics []lint.Diagnostic    `json:"diagnostics"`
}

// Result is everything a completed Run produced.
type Result struct {
	Preflight Preflight
	Plan      *dispatch.Plan
	Outcome   exec.Outcome
	// Table is nil unless the outcome succeeded and the body parsed.
	Table *core.ParsedTable
}

// Config wires a Session. Nil components get defaults.
type Config struct {
	Dispatcher *dispatch.Dispatcher
	Executor   *exec.Executor
	Parser     *results.Parser
	Validator  *lint.Validator
	Model      *capability.Model
	Logger     *slog.Logger

	// ParseOptions apply to every successful response.
	ParseOptions results.Options
}

// Session serializes query attempts against any number of endpoints.
type Session struct {
	dispatcher *dispatch.Dispatcher
	executor   *exec.Executor
	parser     *results.Parser
	ownsParser bool
	validator  *lint.Validator
	model      *capability.Model
	logger     *slog.Logger
	parseOpts  results.Options
	tracker    *exec.Tracker
}

// New creates a Session.
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		dispatcher: cfg.Dispatcher,
		executor:   cfg.Executor,
		parser:     cfg.Parser,
		validator:  cfg.Validator,
		model:      cfg.Model,
		logger:     cfg.Logger,
		parseOpts:  cfg.ParseOptions,
		tracker:    exec.NewTracker(),
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.New()
	}
	if s.executor == nil {
		s.executor = exec.New(exec.Config{Logger: cfg.Logger})
	}
	if s.parser == nil {
		s.parser = results.NewParser(results.Config{Logger: cfg.Logger})
		s.ownsParser = true
	}
	if s.validator == nil {
		s.validator = lint.NewValidator(nil, cfg.Logger)
	}
	if s.model == nil {
		s.model = capability.Unavailable("")
	}
	return s
}

// Close releases the parser worker if the session created it.
func (s *Session) Close() {
	if s.ownsParser {
		s.parser.Close()
	}
}

// Model returns the capability snapshot the session validates against.
func (s *Session) Model() *capability.Model {
	return s.model
}

// Cancel cancels the query in flight, if any.
func (s *Session) Cancel() {
	s.tracker.Cancel()
}

// Preflight runs the size analyzer and the capability validator
// concurrently. Neither can fail; the error is reserved for ctx.
func (s *Session) Preflight(ctx context.Context, query string) (Preflight, error) {
	var pf Preflight
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pf.Estimate = analyze.Analyze(query)
		return gctx.Err()
	})
	g.Go(func() error {
		pf.Diagnostics = s.validator.Validate(query, s.model)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Preflight{}, err
	}
	return pf, nil
}

// Plan builds the dispatch plan for req without sending it.
func (s *Session) Plan(req Request) (*dispatch.Plan, error) {
	return s.dispatcher.BuildPlan(req.Query, req.Endpoint, req.Format)
}

// Run executes req. Any query still in flight on this session is cancelled
// first. A Run that is overtaken by a later Run returns ErrSuperseded no
// matter how it ended.
//
// On a failed outcome the returned error is the *exec.Error; on a body that
// cannot be parsed it is the *results.ParseError. The Result is non-nil
// whenever a plan was built.
func (s *Session) Run(ctx context.Context, req Request) (*Result, error) {
	tok := s.tracker.Begin(ctx)
	defer func() {
		if !s.tracker.IsCurrent(tok) {
			return
		}
		tok.Cancel()
	}()
	log := s.logger.With(slog.Uint64("epoch", tok.Epoch()))

	pf, err := s.Preflight(tok.Context(), req.Query)
	if err != nil {
		return nil, s.settle(tok, err)
	}
	if len(pf.Diagnostics) > 0 {
		log.Debug("preflight diagnostics", slog.Int("count", len(pf.Diagnostics)))
	}

	plan, err := s.Plan(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	res := &Result{Preflight: pf, Plan: plan}

	log.Debug("dispatching query",
		slog.String("method", plan.Method),
		slog.String("kind", plan.Kind.String()),
		slog.String("endpoint", req.Endpoint))
	res.Outcome = s.executor.Execute(ctx, plan, req.Timeout, tok)
	if !s.tracker.IsCurrent(tok) {
		log.Debug("discarding superseded outcome", slog.String("outcome", res.Outcome.Kind.String()))
		return nil, ErrSuperseded
	}

	switch res.Outcome.Kind {
	case exec.OutcomeCancelled:
		return res, ErrCancelled
	case exec.OutcomeFailed:
		return res, res.Outcome.Failure()
	}

	if plan.Kind == core.KindUpdate {
		return res, nil
	}
	table, err := s.parser.Parse(tok.Context(), res.Outcome.Body, res.Outcome.ContentType, s.parseOpts)
	if err != nil {
		return res, s.settle(tok, err)
	}
	if !s.tracker.IsCurrent(tok) {
		return nil, ErrSuperseded
	}
	res.Table = table
	return res, nil
}

// settle maps an error seen after tok was cancelled to ErrSuperseded or
// ErrCancelled.
func (s *Session) settle(tok *exec.Token, err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !s.tracker.IsCurrent(tok) {
		return ErrSuperseded
	}
	return ErrCancelled
}
