package mirror

import "io"

// DefaultChunkSize is the fixed read granularity for streamed transfers.
const DefaultChunkSize = 32 * 1024

// ProgressFunc observes per-task transfer progress. total is -1 when the
// source size is unknown.
type ProgressFunc func(path string, transferred, total int64)

// countingReader caps each read at chunk bytes and reports the running byte
// count after every chunk. The count lives in the reader, not in any shared
// state, so each task's progress is isolated from its siblings.
type countingReader struct {
	r     io.Reader
	chunk int
	path  string
	total int64
	n     int64
	fn    ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	if cr.chunk > 0 && len(p) > cr.chunk {
		p = p[:cr.chunk]
	}
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.n += int64(n)
		if cr.fn != nil {
			cr.fn(cr.path, cr.n, cr.total)
		}
	}
	return n, err
}
