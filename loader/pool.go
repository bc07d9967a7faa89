package loader

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Default retry policy: exponential backoff doubling from baseBackoff
// up to maxRetries attempts before a request is given up on.
const (
	maxRetries  = 5
	baseBackoff = 20 * time.Millisecond
)

// RetryExhaustedError wraps the last error from a Request whose Plan failed
// maxRetries times in a row.
type RetryExhaustedError struct {
	Key   string
	Tries int
	Cause error
}

func (e *RetryExhaustedError) Error() string {
	return errors.Wrapf(e.Cause, "loader: %q failed after %d attempts", e.Key, e.Tries).Error()
}

func (e *RetryExhaustedError) Unwrap() error { return e.Cause }

// Pool is a bounded worker pool draining a Queue, coalescing
// duplicate in-flight requests and retrying failed Plan calls with
// exponential backoff before giving up.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    *Queue
	closed   bool
	coalesce *coalescer
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	// OnFailed, if set, is invoked (off the queue's lock) whenever a
	// request exhausts its retries.
	OnFailed func(*RetryExhaustedError)
}

// NewPool returns a Pool with workers concurrent workers. Each
// execution also holds one unit of sem, whose weight equals workers.
func NewPool(workers int) *Pool {
	p := &Pool{
		queue:    NewQueue(),
		coalesce: newCoalescer(4096),
		sem:      semaphore.NewWeighted(int64(workers)),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Submit enqueues req unless an identical (by Key) request is
// already in flight, in which case it is silently coalesced into the
// existing one. After Close, req is dropped and any waiters on its
// key receive an error.
func (p *Pool) Submit(req Request) {
	if _, started := p.coalesce.join(req.Key); !started {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.coalesce.complete(req.Key, errors.New("loader: pool closed"))
		return
	}
	p.queue.Push(req)
	p.cond.Signal()
	p.mu.Unlock()
}

// Len reports the number of requests currently queued (not counting
// ones a worker has already dequeued and is executing).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		req, ok := p.dequeue()
		if !ok {
			return
		}
		p.execute(req)
	}
}

func (p *Pool) dequeue() (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.queue.Len() == 0 {
		return Request{}, false
	}
	req, _ := p.queue.Pop()
	return req, true
}

func (p *Pool) execute(req Request) {
	ctx := context.Background()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.coalesce.complete(req.Key, err)
		return
	}
	defer p.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		more, err := req.Plan()
		if err == nil {
			if more {
				// Re-enqueue the continuation under the same key so a
				// multi-copy stream (one Copy per texstream.Request
				// step) keeps its place in the priority order without
				// re-triggering coalescing against itself.
				p.mu.Lock()
				p.queue.Push(req)
				p.cond.Signal()
				p.mu.Unlock()
				return
			}
			p.coalesce.complete(req.Key, nil)
			return
		}
		lastErr = err
		if attempt < maxRetries {
			time.Sleep(backoff(attempt))
		}
	}
	final := &RetryExhaustedError{Key: req.Key, Tries: maxRetries, Cause: lastErr}
	p.coalesce.complete(req.Key, final)
	if p.OnFailed != nil {
		p.OnFailed(final)
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt-1)))
}

// Close stops accepting new work, lets the workers drain every request
// already queued, and waits for every worker to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}
