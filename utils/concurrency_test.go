package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://www.ebay.com/itm/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://www.ebay.com/itm/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://www.ebay.com/itm/same"
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

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var timestamps []time.Time
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			<-mu
			timestamps = append(timestamps, time.Now())
			mu <- struct{}{}
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolRunConcurrentCallers(t *testing.T) {
	pool := NewWorkerPool(4, 0)

	const callers = 8
	const jobsPerCaller = 25

	var executed int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs := make([]func(), jobsPerCaller)
			for j := range jobs {
				jobs[j] = func() { atomic.AddInt64(&executed, 1) }
			}
			pool.Run(jobs)
		}()
	}
	wg.Wait()

	if executed != callers*jobsPerCaller {
		t.Errorf("executed %d jobs, want %d", executed, callers*jobsPerCaller)
	}
}

func TestWorkerPoolRunWaitsForCompletion(t *testing.T) {
	pool := NewWorkerPool(2, 0)

	var done int64
	jobs := make([]func(), 10)
	for i := range jobs {
		jobs[i] = func() {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&done, 1)
		}
	}
	pool.Run(jobs)

	if got := atomic.LoadInt64(&done); got != 10 {
		t.Errorf("Run returned with %d of 10 jobs finished", got)
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(80 * time.Millisecond)

	// Same key must wait out the interval.
	rl.Throttle("ebay")
	start := time.Now()
	rl.Throttle("ebay")
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("same-key throttle waited %v, want >= 80ms", elapsed)
	}

	// A different key is independent.
	start = time.Now()
	rl.Throttle("mercari")
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("fresh key waited %v, want no delay", elapsed)
	}
}
