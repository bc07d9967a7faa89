// Package loader implements the engine's asynchronous asset loader
// (C7): a priority queue of streaming requests drained by a worker
// pool, with in-flight request coalescing and bounded retry.
package loader

// Priority orders pending requests; higher values run first.
type Priority int

const (
	Thumbnail Priority = iota
	Low
	Medium
	High
	Immediate
)

// Request is one unit of streaming work: load (or continue loading)
// the asset identified by Key, at the given Priority.
type Request struct {
	Key      string
	Priority Priority

	// Plan is invoked on a worker goroutine to perform the actual
	// copy: reserve staging memory, fill it (pread/memcpy), record
	// and submit a transfer command, and report whether more work
	// remains for this Request (more=true re-enqueues it).
	Plan func() (more bool, err error)
}
