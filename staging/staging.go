// Package staging implements the engine's ring staging allocator
// (C5): a host-visible ring buffer, split into fixed-size pages, that
// callers such as the renderer reserve spans from to assemble CPU-side data
// before a transfer command copies it onto the GPU. Pages are
// reclaimed once the GPU has finished the batch that last wrote to
// them; oversize requests fall back to a small pool of dedicated
// temporary buffers instead of fragmenting the ring.
package staging

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pnkrengine/core/rhi"
)

// DefaultPageSize and DefaultCapacity match the engine's usual
// desktop configuration; both are just constructor defaults, not
// hard limits.
const (
	DefaultPageSize int64 = 2 << 20   // 2MiB
	DefaultCapacity int64 = 256 << 20 // 256MiB
)

// reservationAlign is the byte alignment every Reserve call rounds
// its offset up to, matching BufImgCopy's buffer-offset alignment
// requirement in the rhi package.
const reservationAlign = 256

// pageWait bounds how long Reserve blocks on a single busy page
// before giving up and returning ErrBusy. Callers are expected to
// retry, possibly against a different request.
const pageWait = 10 * time.Millisecond

// ErrBusy is returned by Reserve when every page large enough for
// the request is still awaiting GPU completion after pageWait.
var ErrBusy = errors.New("staging: ring buffer has no free page")

// ErrTooLarge is returned by Reserve when size exceeds the capacity
// of a single oversize temp buffer (the allocator's total capacity).
var ErrTooLarge = errors.New("staging: reservation exceeds allocator capacity")

// Reservation is a span of staging memory ready to be written to and
// then copied from. Bytes() gives CPU access; Release must be called
// exactly once, after the copy command referencing this span has
// been recorded (not necessarily executed).
type Reservation struct {
	buf    rhi.Buffer
	offset int64
	size   int64
	temp   *tempBuffer // non-nil for an oversize reservation
}

// Buffer returns the rhi.Buffer this reservation's bytes live in.
func (r Reservation) Buffer() rhi.Buffer { return r.buf }

// Offset returns the byte offset of this reservation within Buffer().
func (r Reservation) Offset() int64 { return r.offset }

// Size returns the reservation's size in bytes.
func (r Reservation) Size() int64 { return r.size }

// Bytes returns the writable CPU-visible span.
func (r Reservation) Bytes() []byte {
	return r.buf.Bytes()[r.offset : r.offset+r.size]
}

// tempBuffer is a dedicated oversize allocation, reused once freed.
type tempBuffer struct {
	buf   rhi.Buffer
	size  int64
	inUse atomic.Bool
}

// Allocator is the ring staging allocator. The zero value is not
// usable; construct one with New.
type Allocator struct {
	mu   sync.Mutex
	cond *sync.Cond

	gpu      rhi.GPU
	buf      rhi.Buffer
	pageSize int64
	pages    int

	pageLastBatch []uint64 // batch id that last wrote to each page
	curPage       int
	curOff        int64 // bytes already consumed in curPage

	nextBatchID      uint64 // atomic
	completedBatchID uint64

	temps []*tempBuffer
}

// New creates an Allocator backed by a single host-visible rhi.Buffer
// of the given capacity, split into pages of pageSize bytes. capacity
// must be a multiple of pageSize.
func New(gpu rhi.GPU, pageSize, capacity int64) (*Allocator, error) {
	if pageSize <= 0 || capacity <= 0 || capacity%pageSize != 0 {
		return nil, errors.New("staging: capacity must be a positive multiple of pageSize")
	}
	buf, err := gpu.NewBuffer(capacity, true, rhi.UCopySrc)
	if err != nil {
		return nil, err
	}
	a := &Allocator{
		gpu:           gpu,
		buf:           buf,
		pageSize:      pageSize,
		pages:         int(capacity / pageSize),
		pageLastBatch: make([]uint64, capacity/pageSize),
	}
	a.cond = sync.NewCond(&a.mu)
	return a, nil
}

// NextBatch returns a fresh monotonically increasing batch id. Every
// group of Reserve calls that will be submitted to the GPU together
// (and completed together) should share one batch id.
func (a *Allocator) NextBatch() uint64 {
	return atomic.AddUint64(&a.nextBatchID, 1)
}

// Capacity returns the total ring size in bytes.
func (a *Allocator) Capacity() int64 { return a.pageSize * int64(a.pages) }

func align(n, to int64) int64 { return (n + to - 1) &^ (to - 1) }

// Reserve returns a span of size bytes tagged with batch, blocking
// (up to pageWait) if the ring has to advance past a page that is
// still awaiting completion of an earlier batch. Requests larger
// than half the ring's capacity are served from a dedicated,
// reusable temp buffer instead of the ring.
func (a *Allocator) Reserve(size int64, batch uint64) (Reservation, error) {
	if size <= 0 {
		return Reservation{}, errors.New("staging: size must be positive")
	}
	size = align(size, reservationAlign)
	if size > a.Capacity()/2 {
		return a.reserveOversize(size)
	}
	return a.reserveRing(size, batch)
}

func (a *Allocator) reserveRing(size int64, batch uint64) (Reservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		if a.pageSize-a.curOff >= size {
			off := int64(a.curPage)*a.pageSize + a.curOff
			a.curOff += size
			if a.pageLastBatch[a.curPage] < batch {
				a.pageLastBatch[a.curPage] = batch
			}
			return Reservation{buf: a.buf, offset: off, size: size}, nil
		}
		// Not enough room left in the current page: advance to the
		// next one, wrapping around the ring.
		next := (a.curPage + 1) % a.pages
		if !a.waitPageFree(next) {
			return Reservation{}, ErrBusy
		}
		a.curPage = next
		a.curOff = 0
	}
}

// waitPageFree blocks (bounded by pageWait) until page's last writer
// batch has completed, returning false if it is still busy when the
// bound expires. Caller must hold a.mu.
func (a *Allocator) waitPageFree(page int) bool {
	if a.pageLastBatch[page] <= a.completedBatchID {
		return true
	}
	deadline := time.Now().Add(pageWait)
	timer := time.AfterFunc(pageWait, func() {
		a.mu.Lock()
		a.cond.Broadcast()
		a.mu.Unlock()
	})
	defer timer.Stop()
	for a.pageLastBatch[page] > a.completedBatchID {
		if !time.Now().Before(deadline) {
			return false
		}
		a.cond.Wait()
	}
	return true
}

func (a *Allocator) reserveOversize(size int64) (Reservation, error) {
	if size > a.Capacity() {
		return Reservation{}, ErrTooLarge
	}
	a.mu.Lock()
	for _, t := range a.temps {
		if t.size >= size && t.inUse.CompareAndSwap(false, true) {
			a.mu.Unlock()
			return Reservation{buf: t.buf, offset: 0, size: size, temp: t}, nil
		}
	}
	a.mu.Unlock()

	buf, err := a.gpu.NewBuffer(size, true, rhi.UCopySrc)
	if err != nil {
		return Reservation{}, err
	}
	t := &tempBuffer{buf: buf, size: size}
	t.inUse.Store(true)
	a.mu.Lock()
	a.temps = append(a.temps, t)
	a.mu.Unlock()
	return Reservation{buf: t.buf, offset: 0, size: size, temp: t}, nil
}

// NotifyBatchComplete records that the GPU has finished every
// command that referenced reservations tagged with batch (or any
// earlier batch id), and wakes any Reserve call waiting on a page
// held by that batch.
func (a *Allocator) NotifyBatchComplete(batch uint64) {
	a.mu.Lock()
	if batch > a.completedBatchID {
		a.completedBatchID = batch
	}
	a.mu.Unlock()
	a.cond.Broadcast()
}

// Release returns an oversize reservation's temp buffer to the pool.
// It is a no-op for ring reservations, which are reclaimed passively
// via NotifyBatchComplete.
func (r Reservation) Release() {
	if r.temp != nil {
		r.temp.inUse.Store(false)
	}
}
