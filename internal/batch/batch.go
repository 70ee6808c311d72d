// Package batch drives chunked writes of large record sets. Chunks are
// independent: a failed chunk is recorded and the run moves on, so callers
// get a report of what landed instead of an all-or-nothing result.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/delvegen/internal/logger"
)

// DefaultSize is used when a non-positive chunk size is requested
const DefaultSize = 100

// Chunk splits items into consecutive slices of at most size elements.
// N items yield ceil(N/size) chunks; only the last may be short.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultSize
	}
	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Result is the outcome of one chunk
type Result struct {
	Index int   // chunk number, from 0
	Start int   // offset of the chunk's first item
	Size  int   // number of items in the chunk
	Err   error // nil on success
}

// Report collects per-chunk results from Run
type Report struct {
	Results []Result
	// Skipped counts chunks never attempted because the context ended
	Skipped int
}

// Succeeded returns the number of chunks that completed
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results of chunks that returned an error
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Items returns the number of items in successful chunks
func (r *Report) Items() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n += res.Size
		}
	}
	return n
}

// Err joins every chunk error, or returns nil when all chunks succeeded
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("chunk %d (items %d-%d): %w", res.Index, res.Start, res.Start+res.Size-1, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Run calls fn once per chunk, in order. A chunk error does not stop later
// chunks or undo earlier ones. Cancelling ctx stops the run before the next
// chunk; the remaining chunks are counted in Report.Skipped.
func Run[T any](ctx context.Context, items []T, size int, fn func(ctx context.Context, chunk []T) error) *Report {
	chunks := Chunk(items, size)
	report := &Report{Results: make([]Result, 0, len(chunks))}

	start := 0
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			report.Skipped = len(chunks) - i
			logger.Warning("Batch run cancelled", "remaining_chunks", report.Skipped, "error", ctx.Err())
			break
		}

		err := fn(ctx, chunk)
		if err != nil {
			logger.Error("Batch chunk failed", "chunk", i, "start", start, "size", len(chunk), "error", err)
		}
		report.Results = append(report.Results, Result{Index: i, Start: start, Size: len(chunk), Err: err})
		start += len(chunk)
	}
	return report
}
