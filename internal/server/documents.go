package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/extract"
	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/orchestrator"
)

// handleUpload handles POST /api/documents. It accepts a multipart form
// with a single "file" field, validates size and format, and hands the
// bytes to the orchestrator. Ingestion runs in the background; the 202
// response carries the PENDING record the client can poll.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		if tooLarge(err) {
			s.metrics.ingestRequestsTotal.WithLabelValues("rejected").Inc()
			http.Error(w, "upload exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sourceName := strings.TrimSpace(header.Filename)
	if sourceName == "" {
		http.Error(w, "file name is required", http.StatusBadRequest)
		return
	}
	mimeType := header.Header.Get("Content-Type")

	// Reject unsupported formats up front so the client gets 415 instead
	// of a FAILED record it has to poll for.
	if _, err := extract.DetectFormat(sourceName, mimeType); err != nil {
		s.metrics.ingestRequestsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "unsupported document format", http.StatusUnsupportedMediaType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if tooLarge(err) {
			s.metrics.ingestRequestsTotal.WithLabelValues("rejected").Inc()
			http.Error(w, "upload exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		log.Error("upload: read failed", slog.Any("error", err))
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		http.Error(w, "uploaded file is empty", http.StatusBadRequest)
		return
	}

	doc, err := s.engine.Ingest(r.Context(), orchestrator.IngestRequest{
		SourceName: sourceName,
		MIMEType:   mimeType,
		Data:       data,
	})
	if err != nil {
		s.metrics.ingestRequestsTotal.WithLabelValues("error").Inc()
		log.Error("upload: ingest rejected", slog.Any("error", err))
		http.Error(w, "failed to accept document", http.StatusInternalServerError)
		return
	}

	s.metrics.ingestRequestsTotal.WithLabelValues("accepted").Inc()
	log.Info("document accepted",
		slog.String("document_id", doc.ID),
		slog.String("source_name", doc.SourceName),
		slog.Int("bytes", len(data)),
	)
	writeJSON(w, http.StatusAccepted, documentJSON(doc))
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.engine.ListDocuments(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list documents failed", slog.Any("error", err))
		http.Error(w, "failed to list documents", http.StatusInternalServerError)
		return
	}

	resp := listDocumentsResponse{Documents: make([]documentResponse, 0, len(docs)), Total: len(docs)}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, documentJSON(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetDocument handles GET /api/documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("get document failed", slog.Any("error", err))
		http.Error(w, "failed to fetch document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, documentJSON(doc))
}

// handleDeleteDocument handles DELETE /api/documents/{id}. The delete is
// synchronous: on 204 the document's vectors are gone from the index and
// its record is tombstoned.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	id := r.PathValue("id")

	err := s.engine.Delete(r.Context(), id)
	switch {
	case err == nil:
		log.Info("document deleted", slog.String("document_id", id))
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidState):
		http.Error(w, "document is still being processed", http.StatusConflict)
	case errors.Is(err, core.ErrIndex):
		// Vectors may linger; the reconciler retries the sweep.
		log.Warn("delete: index sweep incomplete", slog.String("document_id", id), slog.Any("error", err))
		http.Error(w, "vector index unavailable, delete will be retried", http.StatusBadGateway)
	default:
		log.Error("delete failed", slog.String("document_id", id), slog.Any("error", err))
		http.Error(w, "failed to delete document", http.StatusInternalServerError)
	}
}

// tooLarge reports whether err came from http.MaxBytesReader tripping.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
