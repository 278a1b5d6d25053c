// Package workerpool runs independent tasks on a fixed number of goroutines
// and hands back their results as futures, in submission or completion
// order.
package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	ErrPoolClosed   = errors.New("worker pool is closed")
	ErrTaskPanicked = errors.New("task panicked")
)

// Task produces one result.
type Task[T any] func() (T, error)

// Future holds the eventual result of a submitted task.
type Future[T any] struct {
	// ID is the caller-chosen identifier passed to Submit.
	ID int

	done  chan struct{}
	value T
	err   error
}

// Done is closed once the task has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

type job[T any] struct {
	future *Future[T]
	task   Task[T]
}

// Pool is a fixed-size set of workers. The worker count does not depend on
// how many tasks are submitted; tasks queue until a worker is free.
//
// Thread safety: Pool is safe for concurrent use.
type Pool[T any] struct {
	workers int

	mu          sync.Mutex
	cond        *sync.Cond
	pending     []job[T]
	finished    []*Future[T]
	outstanding int
	closed      bool

	wg            sync.WaitGroup
	completedOnce sync.Once
	completed     chan *Future[T]
}

// New creates a pool with the given number of workers and starts them.
// If workers is 0 or negative, GOMAXPROCS is used.
func New[T any](workers int) *Pool[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool[T]{workers: workers}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool[T]) Workers() int {
	return p.workers
}

// Submit queues task and returns its future. Submit never blocks. After
// Close the returned future is already failed with ErrPoolClosed and is
// not delivered on Completed.
func (p *Pool[T]) Submit(id int, task Task[T]) *Future[T] {
	f := &Future[T]{ID: id, done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		f.err = ErrPoolClosed
		close(f.done)
		return f
	}

	p.pending = append(p.pending, job[T]{future: f, task: task})
	p.outstanding++
	p.cond.Broadcast()
	return f
}

// Completed returns a channel yielding every submitted future in the order
// the tasks finish. The channel is closed after Close once all results have
// been delivered.
func (p *Pool[T]) Completed() <-chan *Future[T] {
	p.completedOnce.Do(func() {
		p.completed = make(chan *Future[T])
		go p.deliver()
	})
	return p.completed
}

// Close stops accepting tasks, waits for queued tasks to finish and stops
// the workers. Close is safe to call multiple times.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.pending[0]
		p.pending = p.pending[1:]
		p.mu.Unlock()

		f := j.future
		f.value, f.err = run(j.task)
		close(f.done)

		p.mu.Lock()
		p.finished = append(p.finished, f)
		p.outstanding--
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// deliver forwards finished futures to the Completed channel.
func (p *Pool[T]) deliver() {
	defer close(p.completed)

	for {
		p.mu.Lock()
		for len(p.finished) == 0 && !(p.closed && p.outstanding == 0) {
			p.cond.Wait()
		}
		if len(p.finished) == 0 {
			p.mu.Unlock()
			return
		}
		f := p.finished[0]
		p.finished = p.finished[1:]
		p.mu.Unlock()

		p.completed <- f
	}
}

// run executes task, turning a panic into an error.
func run[T any](task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task()
}
