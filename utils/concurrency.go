package utils

import (
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with rate limiting.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A rateLimitMs of 0 disables the inter-job delay, which is what the CPU-bound
// matching pass wants.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
		lastRequest: time.Now(),
	}
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if wp.rateLimitMs > 0 {
			wp.enforceRateLimit()
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed. Submit/Wait assume a
// single owner; callers sharing one pool must use Run instead.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Run executes the jobs on the pool and returns when all have completed.
// Each call waits on its own WaitGroup while sharing the pool's concurrency
// limit, so concurrent Run calls on one pool are safe.
func (wp *WorkerPool) Run(jobs []func()) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		wp.semaphore <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-wp.semaphore }()

			if wp.rateLimitMs > 0 {
				wp.enforceRateLimit()
			}
			job()
		}()
	}
	wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}

// RateLimiter throttles operations per key so each marketplace keeps its own
// request cadence. Shared by all adapters.
type RateLimiter struct {
	minInterval time.Duration
	mu          sync.Mutex
	lastCall    map[string]time.Time
}

// NewRateLimiter creates a RateLimiter enforcing minInterval between calls
// with the same key.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		minInterval: minInterval,
		lastCall:    make(map[string]time.Time),
	}
}

// Throttle blocks until the key's minimum interval has elapsed since its
// previous call, then records the call.
func (rl *RateLimiter) Throttle(key string) {
	rl.mu.Lock()
	last, ok := rl.lastCall[key]
	if ok {
		if wait := rl.minInterval - time.Since(last); wait > 0 {
			rl.mu.Unlock()
			time.Sleep(wait)
			rl.mu.Lock()
		}
	}
	rl.lastCall[key] = time.Now()
	rl.mu.Unlock()
}

// URLSet is a thread-safe set for tracking already-collected listing links.
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

// Contains returns true if the URL has already been seen.
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
