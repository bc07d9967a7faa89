package loader

import (
	"sync"

	"github.com/OneOfOne/xxhash"
	cuckoofilter "github.com/seiflotfy/cuckoofilter"
)

// coalescer deduplicates requests for a key that is already being
// serviced, so that repeated scene-traversal or streamer requests
// for the same texture/mesh don't each start their own copy.
//
// A cuckoofilter mirrors the in-flight keys so that maybeInFlight can
// give a fast, false-positive-tolerant "have I probably seen this
// key" answer; join and complete always consult the authoritative
// map.
type coalescer struct {
	mu     sync.Mutex
	filter *cuckoofilter.Filter
	inFlight map[string][]chan error
}

func newCoalescer(capacity uint) *coalescer {
	return &coalescer{
		filter:   cuckoofilter.NewFilter(capacity),
		inFlight: make(map[string][]chan error),
	}
}

func keyBytes(key string) []byte {
	h := xxhash.ChecksumString64(key)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	return b
}

// join registers the caller's interest in key. If another request
// for the same key is already in flight, join returns a channel that
// receives that request's result and started=false: the caller must
// not enqueue its own Request. Otherwise it returns started=true and
// the caller becomes responsible for enqueuing the work and calling
// complete when it finishes.
func (c *coalescer) join(key string) (wait <-chan error, started bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if waiters, ok := c.inFlight[key]; ok {
		ch := make(chan error, 1)
		c.inFlight[key] = append(waiters, ch)
		return ch, false
	}
	c.filter.InsertUnique(keyBytes(key))
	c.inFlight[key] = []chan error{}
	return nil, true
}

// complete notifies every waiter on key with err and clears the
// in-flight entry.
func (c *coalescer) complete(key string, err error) {
	c.mu.Lock()
	waiters := c.inFlight[key]
	delete(c.inFlight, key)
	c.filter.Delete(keyBytes(key))
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- err
		close(ch)
	}
}

// maybeInFlight is a cheap pre-check; a false result guarantees key
// is not in flight, a true result requires confirming against the
// authoritative map (the filter can false-positive).
func (c *coalescer) maybeInFlight(key string) bool {
	return c.filter.Lookup(keyBytes(key))
}
