package loader

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := NewQueue()
	q.Push(Request{Key: "a", Priority: Low})
	q.Push(Request{Key: "b", Priority: High})
	q.Push(Request{Key: "c", Priority: Low})

	first, _ := q.Pop()
	if first.Key != "b" {
		t.Fatalf("first = %q, want %q (higher priority)", first.Key, "b")
	}
	second, _ := q.Pop()
	if second.Key != "a" {
		t.Fatalf("second = %q, want %q (FIFO among equal priority)", second.Key, "a")
	}
}

func TestPoolRunsSubmittedRequest(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	done := make(chan struct{})
	p.Submit(Request{
		Key: "mesh-0",
		Plan: func() (bool, error) {
			close(done)
			return false, nil
		},
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("request never executed")
	}
}

func TestPoolCoalescesDuplicateKey(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	var calls int
	var mu sync.Mutex
	block := make(chan struct{})
	first := make(chan struct{})

	p.Submit(Request{
		Key: "tex-0",
		Plan: func() (bool, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			close(first)
			<-block
			return false, nil
		},
	})
	<-first
	// Second submission for the same key while the first is still
	// running (blocked on block) must be coalesced, not queued.
	p.Submit(Request{Key: "tex-0", Plan: func() (bool, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return false, nil
	}})
	if p.Len() != 0 {
		t.Errorf("coalesced request was queued: Len()=%d", p.Len())
	}
	close(block)
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second Submit should coalesce)", calls)
	}
}

func TestPoolRetriesThenGivesUp(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	var attempts int
	var mu sync.Mutex
	failed := make(chan *RetryExhaustedError, 1)
	p.OnFailed = func(e *RetryExhaustedError) { failed <- e }

	p.Submit(Request{
		Key: "bad-asset",
		Plan: func() (bool, error) {
			mu.Lock()
			attempts++
			mu.Unlock()
			return false, errors.New("disk read failed")
		},
	})

	select {
	case e := <-failed:
		if e.Tries != maxRetries {
			t.Errorf("Tries = %d, want %d", e.Tries, maxRetries)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("request never exhausted retries")
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != maxRetries {
		t.Errorf("attempts = %d, want %d", attempts, maxRetries)
	}
}
