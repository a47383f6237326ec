// Package watcher ingests documents dropped into a local directory,
// feeding them through the same batch path as HTTP uploads.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/dgallion1/docquest/internal/extractor"
	"github.com/dgallion1/docquest/internal/ingest"
)

// Watcher monitors a directory for new supported files.
type Watcher struct {
	fsw   *fsnotify.Watcher
	coord *ingest.Coordinator
	store *document.Store
	log   *slog.Logger
}

func New(coord *ingest.Coordinator, store *document.Store, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:   fsw,
		coord: coord,
		store: store,
		log:   log,
	}, nil
}

// Watch ingests supported files created or written under dir until the
// context is cancelled. Ingestion failures are logged per file; the
// watcher itself keeps running.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.log.Info("watching directory", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !extractor.IsSupportedExtension(event.Name) {
				continue
			}
			w.ingestFile(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	name := filepath.Base(path)
	if w.store.Has(name) {
		// Write events fire repeatedly while a file is copied in; an
		// already-ingested name is not worth a duplicate error here.
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Error("read dropped file", "path", path, "error", err)
		return
	}

	results := w.coord.IngestBatch(ctx, w.store, []ingest.Upload{{Filename: name, Data: data}})
	for _, r := range results {
		if r.Err != nil {
			w.log.Error("ingest dropped file", "filename", r.Filename, "error", r.Err)
		} else {
			w.log.Info("ingested dropped file", "filename", r.Filename, "units", len(r.Record.Units))
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}
