package pool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send tasks to the workers.
	//
	// This effectively makes a work stealing pool.
	commands chan func()
	// This holds the number of workers we've created
	workerCount int
	closed      atomic.Bool
}

func worker(commands <-chan func()) {
	for task := range commands {
		task()
	}
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		commands:    make(chan func()),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.commands)
	}
	return p
}

// Workers returns the number of goroutines serving p, 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// TearDown cleanly tears down a pool. It is safe to call more than once.
func (p *Pool) TearDown() {
	if p == nil || !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.commands)
}

// Parallelize calls f count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
// A nil or torn down pool runs everything on the calling goroutine.
func Parallelize[T any](p *Pool, count int, f func(int) T) []T {
	results := make([]T, count)
	if p == nil || p.closed.Load() {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		i := i
		p.commands <- func() {
			defer wg.Done()
			results[i] = f(i)
		}
	}
	wg.Wait()
	return results
}

// ParallelizeErr is Parallelize for fallible functions.
//
// Every index is evaluated, and the error of the lowest failing index is returned.
func ParallelizeErr[T any](p *Pool, count int, f func(int) (T, error)) ([]T, error) {
	type result struct {
		value T
		err   error
	}
	results := Parallelize(p, count, func(i int) result {
		v, err := f(i)
		return result{v, err}
	})
	out := make([]T, count)
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.value
	}
	return out, nil
}
