package orchestrator

import (
	"context"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/youmu/internal/metrics"
)

// Gate admits one caller at a time. Waiting callers leave the queue when
// their context ends; an admitted caller runs to completion.
type Gate struct {
	slot     chan struct{}
	waiting  atomic.Int64
	recorder metrics.Recorder
}

// NewGate returns an open gate. A nil recorder records nothing.
func NewGate(recorder metrics.Recorder) *Gate {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Gate{slot: make(chan struct{}, 1), recorder: recorder}
}

// Do runs fn once the gate is free. It returns ctx.Err() without running fn
// if ctx ends first.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	g.recorder.SetGateWaiting(int(g.waiting.Add(1)))
	select {
	case g.slot <- struct{}{}:
		g.recorder.SetGateWaiting(int(g.waiting.Add(-1)))
	case <-ctx.Done():
		g.recorder.SetGateWaiting(int(g.waiting.Add(-1)))
		return ctx.Err()
	}
	defer func() { <-g.slot }()
	g.recorder.ObserveGateWait(time.Since(start))
	return fn()
}

// Waiting reports how many callers are queued.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}
