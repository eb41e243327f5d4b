package workers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

func TestPoolRunsTasksAndInvokesCallback(t *testing.T) {
	p := NewPool(2, 16, nil)
	defer p.Stop()

	var wg sync.WaitGroup
	var succeeded int64

	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(
			func() models.EvaluationResult {
				return models.EvaluationResult{Success: true}
			},
			func(res models.EvaluationResult) {
				if res.Success {
					atomic.AddInt64(&succeeded, 1)
				}
				wg.Done()
			},
		)
	}

	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&succeeded))
	assert.Equal(t, uint64(20), p.Stats().Completed)
}

func TestPoolSubmitNeverBlocks(t *testing.T) {
	p := NewPool(1, 1, nil)
	defer p.Stop()

	release := make(chan struct{})
	var dropped int64

	// Occupy the single worker.
	p.Submit(func() models.EvaluationResult {
		<-release
		return models.EvaluationResult{Success: true}
	}, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			p.Submit(
				func() models.EvaluationResult {
					return models.EvaluationResult{Success: true}
				},
				func(res models.EvaluationResult) {
					if !res.Success {
						atomic.AddInt64(&dropped, 1)
					}
				},
			)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked with a full queue")
	}
	close(release)

	assert.Greater(t, atomic.LoadInt64(&dropped), int64(0))
	assert.Greater(t, p.Stats().Dropped, uint64(0))
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := NewPool(1, 4, nil)
	defer p.Stop()

	got := make(chan models.EvaluationResult, 1)
	p.Submit(
		func() models.EvaluationResult {
			panic("boom")
		},
		func(res models.EvaluationResult) {
			got <- res
		},
	)

	select {
	case res := <-got:
		assert.False(t, res.Success)
		assert.Contains(t, res.Err, "panicked")
	case <-time.After(2 * time.Second):
		t.Fatal("no callback after panic")
	}

	// Worker survived the panic.
	done := make(chan struct{})
	p.Submit(func() models.EvaluationResult {
		return models.EvaluationResult{Success: true}
	}, func(models.EvaluationResult) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive panic")
	}
}

func TestPoolRejectsAfterStop(t *testing.T) {
	p := NewPool(1, 4, nil)
	p.Stop()

	var res models.EvaluationResult
	p.Submit(
		func() models.EvaluationResult { return models.EvaluationResult{Success: true} },
		func(r models.EvaluationResult) { res = r },
	)

	require.False(t, res.Success)
	assert.Contains(t, res.Err, "stopped")
}
