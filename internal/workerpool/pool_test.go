package workerpool

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPool_CreateZeroWorkers(t *testing.T) {
	p := New[int](0)
	defer p.Close()

	if want := runtime.GOMAXPROCS(0); p.Workers() != want {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", p.Workers(), want)
	}
}

func TestPool_WaitReturnsResults(t *testing.T) {
	p := New[int](3)
	defer p.Close()

	futures := make([]*Future[int], 50)
	for i := range futures {
		futures[i] = p.Submit(i, func() (int, error) { return i * i, nil })
	}

	for i, f := range futures {
		v, err := f.Wait()
		if err != nil {
			t.Fatalf("task %d failed: %v", i, err)
		}
		if v != i*i {
			t.Errorf("task %d = %d, want %d", i, v, i*i)
		}
		if f.ID != i {
			t.Errorf("future ID = %d, want %d", f.ID, i)
		}
	}
}

func TestPool_FixedConcurrency(t *testing.T) {
	const workers = 2
	p := New[struct{}](workers)
	defer p.Close()

	var active, peak atomic.Int32
	release := make(chan struct{})

	futures := make([]*Future[struct{}], 10)
	for i := range futures {
		futures[i] = p.Submit(i, func() (struct{}, error) {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			active.Add(-1)
			return struct{}{}, nil
		})
	}
	close(release)

	for _, f := range futures {
		f.Wait()
	}
	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
}

func TestPool_CompletedInFinishOrder(t *testing.T) {
	p := New[string](2)

	unblock := make(chan struct{})
	slow := p.Submit(0, func() (string, error) {
		<-unblock
		return "slow", nil
	})
	p.Submit(1, func() (string, error) { return "fast", nil })

	completed := p.Completed()
	first := <-completed
	if first.ID != 1 {
		t.Errorf("first completed ID = %d, want 1", first.ID)
	}
	close(unblock)

	second := <-completed
	if second != slow {
		t.Errorf("second completed ID = %d, want 0", second.ID)
	}

	p.Close()
	if _, ok := <-completed; ok {
		t.Error("Completed should be closed after Close")
	}
}

func TestPool_ErrorsAndPanics(t *testing.T) {
	p := New[int](2)
	defer p.Close()

	errBoom := errors.New("boom")
	failed := p.Submit(0, func() (int, error) { return 0, errBoom })
	panicked := p.Submit(1, func() (int, error) { panic("bad quad") })
	ok := p.Submit(2, func() (int, error) { return 7, nil })

	if _, err := failed.Wait(); !errors.Is(err, errBoom) {
		t.Errorf("failed task error = %v, want %v", err, errBoom)
	}
	if _, err := panicked.Wait(); !errors.Is(err, ErrTaskPanicked) {
		t.Errorf("panicked task error = %v, want ErrTaskPanicked", err)
	}
	if v, err := ok.Wait(); err != nil || v != 7 {
		t.Errorf("sibling task = (%d, %v), want (7, nil)", v, err)
	}
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := New[int](1)

	var mu sync.Mutex
	ran := 0
	for i := range 20 {
		p.Submit(i, func() (int, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			return i, nil
		})
	}
	p.Close()
	p.Close()

	if ran != 20 {
		t.Errorf("ran %d tasks before Close returned, want 20", ran)
	}

	late := p.Submit(99, func() (int, error) { return 1, nil })
	if _, err := late.Wait(); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("submit after close error = %v, want ErrPoolClosed", err)
	}

	count := 0
	for range p.Completed() {
		count++
	}
	if count != 20 {
		t.Errorf("Completed delivered %d futures, want 20", count)
	}
}
