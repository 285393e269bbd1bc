package exec

import (
	"context"
	"sync/atomic"
)

// Token scopes one execution. Cancelling it aborts the HTTP call and any
// parse work that checks it.
type Token struct {
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken returns a standalone token derived from parent, outside any Tracker.
func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Epoch is the tracker generation that issued the token (0 when standalone).
func (t *Token) Epoch() uint64 { return t.epoch }

// Context is cancelled when the token is.
func (t *Token) Context() context.Context { return t.ctx }

// Cancel cancels the token. Safe to call more than once.
func (t *Token) Cancel() { t.cancel() }

// Valid reports whether the token has not been cancelled.
func (t *Token) Valid() bool { return t.ctx.Err() == nil }

// Tracker holds the one current token. Begin atomically installs a new token
// and cancels the one it replaces.
type Tracker struct {
	epoch   atomic.Uint64
	current atomic.Pointer[Token]
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin cancels the current token, if any, and returns a new current token.
func (t *Tracker) Begin(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	tok := &Token{epoch: t.epoch.Add(1), ctx: ctx, cancel: cancel}
	if prev := t.current.Swap(tok); prev != nil {
		prev.Cancel()
	}
	return tok
}

// IsCurrent reports whether tok is the most recently begun token.
// A cancelled token can still be current until the next Begin.
func (t *Tracker) IsCurrent(tok *Token) bool {
	return tok != nil && t.current.Load() == tok
}

// Current returns the current token, or nil before the first Begin.
func (t *Tracker) Current() *Token {
	return t.current.Load()
}

// Cancel cancels the current token without replacing it.
func (t *Tracker) Cancel() {
	if cur := t.current.Load(); cur != nil {
		cur.Cancel()
	}
}
