// Package ingest runs extraction over a batch of uploaded files with
// bounded concurrency. A batch is never all-or-nothing: each file
// succeeds or fails on its own, and results are collected per file.
package ingest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/dgallion1/docquest/internal/extractor"
)

// DefaultWorkers bounds concurrent extractions.
const DefaultWorkers = 2

// Upload is one file received at the upload boundary.
type Upload struct {
	Filename string
	Data     []byte
}

// Result pairs a filename with either its record or its error.
type Result struct {
	Filename string
	Record   *document.Record
	Err      error
}

// ExtractFunc matches extractor.Extract; swappable in tests.
type ExtractFunc func(data []byte, filename string, opts extractor.Options) (*document.Record, error)

// Coordinator schedules extraction tasks over a fixed-size worker pool.
type Coordinator struct {
	log     *slog.Logger
	workers int
	extract ExtractFunc
}

func NewCoordinator(log *slog.Logger, workers int) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Coordinator{
		log:     log,
		workers: workers,
		extract: extractor.Extract,
	}
}

// Run extracts every upload and returns one result per file, in
// completion order. The first file of the batch carries the primary
// hint. A file's failure never cancels its siblings: tasks always
// return nil to the group and report through the results channel.
func (c *Coordinator) Run(ctx context.Context, uploads []Upload) []Result {
	if len(uploads) == 0 {
		return nil
	}

	results := make(chan Result, len(uploads))
	g := new(errgroup.Group)
	g.SetLimit(c.workers)

	for i, up := range uploads {
		opts := extractor.Options{Primary: i == 0}
		g.Go(func() error {
			rec, err := c.extract(up.Data, up.Filename, opts)
			if err != nil {
				c.log.Error("extraction failed", "filename", up.Filename, "error", err)
			} else {
				c.log.Info("extracted document", "filename", up.Filename, "units", len(rec.Units))
			}
			results <- Result{Filename: up.Filename, Record: rec, Err: err}
			return nil
		})
	}

	g.Wait()
	close(results)

	out := make([]Result, 0, len(uploads))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// IngestBatch dedupes uploads against the store, extracts the remainder,
// and merges successful records. Duplicates are reported as
// *document.DuplicateError without being scheduled; store mutation
// happens here, on the calling goroutine, never inside a worker.
func (c *Coordinator) IngestBatch(ctx context.Context, store *document.Store, uploads []Upload) []Result {
	fresh := make([]Upload, 0, len(uploads))
	var dupes []Result
	seen := make(map[string]bool, len(uploads))

	for _, up := range uploads {
		if store.Has(up.Filename) || seen[up.Filename] {
			dupes = append(dupes, Result{
				Filename: up.Filename,
				Err:      &document.DuplicateError{Name: up.Filename},
			})
			continue
		}
		seen[up.Filename] = true
		fresh = append(fresh, up)
	}

	results := c.Run(ctx, fresh)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if err := store.Put(results[i].Record); err != nil {
			// Unreachable under the dedupe above, but a put failure must
			// still surface per file rather than be dropped.
			results[i].Err = err
			results[i].Record = nil
		}
	}

	return append(results, dupes...)
}
