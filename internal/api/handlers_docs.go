package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/dgallion1/docquest/internal/extractor"
	"github.com/dgallion1/docquest/internal/ingest"
)

// handleUpload ingests a multipart batch of files. Each file gets its
// own result line; a failed sibling never blocks the rest.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var uploads []ingest.Upload
	var results []map[string]any

	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !extractor.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"status":   "error",
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"status":   "error",
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"status":   "error",
				"error":    fmt.Sprintf("file too large or read error (max %d bytes)", s.cfg.MaxUploadBytes),
			})
			continue
		}

		uploads = append(uploads, ingest.Upload{Filename: filename, Data: data})
	}

	for _, res := range s.coord.IngestBatch(r.Context(), s.sess.Store(), uploads) {
		entry := map[string]any{"filename": res.Filename}
		switch {
		case res.Err == nil:
			entry["status"] = "ok"
			entry["units"] = len(res.Record.Units)
			entry["format"] = res.Record.Meta.Format
		case isDuplicate(res.Err):
			entry["status"] = "duplicate"
			entry["error"] = res.Err.Error()
		default:
			entry["status"] = "error"
			entry["error"] = res.Err.Error()
		}
		results = append(results, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":   results,
		"documents": s.sess.Store().Len(),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var docs []map[string]any
	for _, rec := range s.sess.Store().All() {
		docs = append(docs, map[string]any{
			"name":     rec.Name,
			"format":   rec.Meta.Format,
			"units":    rec.Meta.UnitCount,
			"primary":  rec.Meta.Primary,
		})
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a record by name. This is the deliberate
// path for replacing a document: delete, then upload the new version.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.sess.Store().Remove(name) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document removed", "filename", name)
	writeJSON(w, http.StatusOK, map[string]string{"removed": name})
}

func isDuplicate(err error) bool {
	var dup *document.DuplicateError
	return errors.As(err, &dup)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
