package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_MutualExclusion(t *testing.T) {
	g := NewGate(nil)
	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(context.Background(), func() error {
				n := inside.Add(1)
				if n > peak.Load() {
					peak.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, peak.Load())
	assert.Zero(t, g.Waiting())
}

func TestGate_AbandonedWaiterNeverRuns(t *testing.T) {
	g := NewGate(nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	ran := false
	go func() {
		done <- g.Do(ctx, func() error { ran = true; return nil })
	}()
	require.Eventually(t, func() bool { return g.Waiting() == 1 }, time.Second, time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
	assert.Zero(t, g.Waiting())
	close(release)

	require.NoError(t, g.Do(context.Background(), func() error { return nil }))
}

func TestGate_CanceledContextDoesNotEnter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewGate(nil).Do(ctx, func() error {
		t.Fatal("must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
