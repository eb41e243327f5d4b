// Package workers runs evaluation tasks on a small goroutine pool so
// the acquisition path never blocks on analysis.
package workers

import (
	"fmt"
	"sync"

	"github.com/donfreerk/shock-tester-sub001/internal/logger"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

type job struct {
	task     func() models.EvaluationResult
	callback func(models.EvaluationResult)
}

// Pool executes evaluation tasks asynchronously. Submit never blocks the
// caller: when the queue is full the task is dropped and the callback is
// invoked with a failure result.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	logger  *logger.SystemLogger
	mu      sync.Mutex
	stopped bool

	statsMu   sync.Mutex
	submitted uint64
	dropped   uint64
	completed uint64
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Submitted uint64
	Dropped   uint64
	Completed uint64
	QueueLen  int
}

// NewPool starts size worker goroutines with a queue of queueLen pending
// tasks. The logger may be nil.
func NewPool(size, queueLen int, log *logger.SystemLogger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueLen < 1 {
		queueLen = 1
	}

	p := &Pool{
		jobs:   make(chan job, queueLen),
		logger: log,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.LogCriticalError("workers", "evaluate", panicError(r))
			}
			if j.callback != nil {
				j.callback(models.EvaluationResult{Success: false, Err: "evaluation panicked"})
			}
		}
	}()

	result := j.task()

	p.statsMu.Lock()
	p.completed++
	p.statsMu.Unlock()

	if j.callback != nil {
		j.callback(result)
	}
}

// Submit queues a task for asynchronous execution. The callback receives
// the task's result on a worker goroutine.
func (p *Pool) Submit(task func() models.EvaluationResult, callback func(models.EvaluationResult)) {
	if task == nil {
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		if callback != nil {
			callback(models.EvaluationResult{Success: false, Err: "worker pool stopped"})
		}
		return
	}
	p.mu.Unlock()

	p.statsMu.Lock()
	p.submitted++
	p.statsMu.Unlock()

	select {
	case p.jobs <- job{task: task, callback: callback}:
	default:
		p.statsMu.Lock()
		p.dropped++
		p.statsMu.Unlock()
		if callback != nil {
			callback(models.EvaluationResult{Success: false, Err: "worker queue full"})
		}
	}
}

// Stop drains the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return PoolStats{
		Submitted: p.submitted,
		Dropped:   p.dropped,
		Completed: p.completed,
		QueueLen:  len(p.jobs),
	}
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
