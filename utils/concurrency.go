package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with a randomised courtesy delay
// between jobs. A pool of size 1 runs jobs strictly one after another.
type WorkerPool struct {
	maxWorkers int
	minDelay   time.Duration
	maxDelay   time.Duration
	semaphore  chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	mu         sync.Mutex
	started    bool
	// lastEvent is the most recent job start or finish.
	lastEvent time.Time
}

// NewWorkerPool creates a WorkerPool. Each job waits at least a random
// duration in [minDelay, maxDelay] after the previous job started or
// finished, whichever is later. The first job starts immediately.
func NewWorkerPool(maxWorkers int, minDelay, maxDelay time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		semaphore:  make(chan struct{}, maxWorkers),
		ctx:        context.Background(),
	}
}

// WithContext makes pending delays end early once ctx is done.
func (wp *WorkerPool) WithContext(ctx context.Context) *WorkerPool {
	wp.ctx = ctx
	return wp
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceDelay()
		job()
		wp.markEvent()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceDelay() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		gap := RandomDuration(wp.minDelay, wp.maxDelay)
		if wait := gap - time.Since(wp.lastEvent); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-wp.ctx.Done():
			case <-timer.C:
			}
			timer.Stop()
		}
	}
	wp.started = true
	wp.lastEvent = time.Now()
}

func (wp *WorkerPool) markEvent() {
	wp.mu.Lock()
	wp.lastEvent = time.Now()
	wp.mu.Unlock()
}

// RandomDuration returns a uniformly random duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if min <= 0 && max <= 0 {
		return 0
	}
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// URLSet is a thread-safe set for tracking visited URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been visited.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
