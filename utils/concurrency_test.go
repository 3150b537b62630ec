package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://www.bringfido.ca/restaurant/76703")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://www.bringfido.ca/restaurant/76703")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if !s.Contains("https://www.bringfido.ca/restaurant/76703") {
		t.Error("Contains should report the added URL")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolDelay(t *testing.T) {
	delay := 50 * time.Millisecond
	pool := NewWorkerPool(1, delay, delay)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	assert.Len(t, timestamps, 3)
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < delay {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, delay)
		}
	}
}

func TestWorkerPoolDelayCountsFromJobEnd(t *testing.T) {
	delay := 50 * time.Millisecond
	pool := NewWorkerPool(1, delay, delay)

	var mu sync.Mutex
	var starts, ends []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()

			time.Sleep(60 * time.Millisecond)

			mu.Lock()
			ends = append(ends, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	assert.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		pause := starts[i].Sub(ends[i-1])
		if pause < delay {
			t.Errorf("pause between job %d end and job %d start: %v < minimum %v", i-1, i, pause, delay)
		}
	}
}

func TestWorkerPoolDelayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(1, 10*time.Second, 10*time.Second).WithContext(ctx)

	var ran int64
	begin := time.Now()
	pool.Submit(func() {
		atomic.AddInt64(&ran, 1)
		cancel()
	})
	pool.Submit(func() { atomic.AddInt64(&ran, 1) })
	pool.Wait()

	assert.Equal(t, int64(2), ran)
	assert.Less(t, time.Since(begin), 5*time.Second)
}

func TestWorkerPoolSequentialWhenSizeOne(t *testing.T) {
	pool := NewWorkerPool(0, 0, 0)

	var running, maxRunning int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				m := atomic.LoadInt64(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt64(&maxRunning, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	assert.Equal(t, int64(1), maxRunning)
}

func TestRandomDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), RandomDuration(0, 0))
	assert.Equal(t, 2*time.Second, RandomDuration(2*time.Second, time.Second))

	for i := 0; i < 100; i++ {
		d := RandomDuration(2*time.Second, 4*time.Second)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}
