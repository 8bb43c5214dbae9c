// Package synth speaks text aloud. Each language gets an ordered chain of
// synthesis engines; when one fails the next is tried, and the reasons are
// kept so degraded playback stays observable.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"dobhash/lang"
	"dobhash/log"
)

// ErrBusy is returned by a guarded chain while a previous playback is
// still running.
var ErrBusy = errors.New("playback already in progress")

// Engine is one way of rendering text to audible speech.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string, l lang.Language) error
}

// Failure records why one engine in a chain refused to speak.
type Failure struct {
	Engine string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Engine, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// ChainError reports that every engine in a chain failed.
type ChainError struct {
	Failures []Failure
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return "all synthesis engines failed: " + strings.Join(parts, "; ")
}

// Chain tries its engines in order until one speaks. A guarded chain
// refuses overlapping playback requests instead of queueing them.
type Chain struct {
	engines  []Engine
	guarded  bool
	speaking atomic.Bool
}

func NewChain(guarded bool, engines ...Engine) *Chain {
	return &Chain{engines: engines, guarded: guarded}
}

func (c *Chain) Speaking() bool {
	return c.speaking.Load()
}

func (c *Chain) Speak(ctx context.Context, text string, l lang.Language) error {
	if c.guarded {
		if !c.speaking.CompareAndSwap(false, true) {
			return ErrBusy
		}
		defer c.speaking.Store(false)
	}

	if len(c.engines) == 0 {
		return fmt.Errorf("no synthesis engine configured for %s", l.Name)
	}

	var failures []Failure
	for _, e := range c.engines {
		err := e.Speak(ctx, text, l)
		if err == nil {
			return nil
		}
		failures = append(failures, Failure{Engine: e.Name(), Err: err})
		log.Warnf("synthesis engine %s failed for %s: %v", e.Name(), l.Name, err)
	}
	return &ChainError{Failures: failures}
}
