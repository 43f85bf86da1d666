package server

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/docstore"
	"github.com/documind-ai/documind-go/internal/orchestrator"
	"github.com/documind-ai/documind-go/internal/retrieval"
)

// ---------------------------------------------------------------------------
// Fake engine shared by handler tests
// ---------------------------------------------------------------------------

// fakeEngine implements the engine interface for tests. Each field
// configures the corresponding method's return values.
type fakeEngine struct {
	// docs backs GetDocument and ListDocuments.
	docs []core.Document
	// ingestErr is returned by Ingest when set.
	ingestErr error
	// lastIngest records the most recent Ingest request.
	lastIngest orchestrator.IngestRequest
	// answer is returned by Answer on success.
	answer orchestrator.Result
	// answerErr is returned by Answer when set.
	answerErr error
	// lastParams records the most recent Answer params.
	lastParams retrieval.Params
	// deleteErr is returned by Delete when set.
	deleteErr error
	// stats backs Stats.
	stats docstore.Stats
	// statsErr is returned by Stats when set.
	statsErr error
	// active is returned by ActiveIngests.
	active int
}

func (f *fakeEngine) Ingest(_ context.Context, req orchestrator.IngestRequest) (core.Document, error) {
	if f.ingestErr != nil {
		return core.Document{}, f.ingestErr
	}
	f.lastIngest = req
	return core.Document{
		ID:         "doc-1",
		SourceName: req.SourceName,
		MIMEType:   req.MIMEType,
		IngestedAt: time.Now().UTC(),
		Status:     core.StatusPending,
	}, nil
}

func (f *fakeEngine) Answer(_ context.Context, question string, params retrieval.Params) (orchestrator.Result, error) {
	if f.answerErr != nil {
		return orchestrator.Result{}, f.answerErr
	}
	f.lastParams = params
	result := f.answer
	result.Question = question
	return result, nil
}

func (f *fakeEngine) Delete(_ context.Context, _ string) error { return f.deleteErr }

func (f *fakeEngine) GetDocument(_ context.Context, id string) (core.Document, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return core.Document{}, core.ErrNotFound
}

func (f *fakeEngine) ListDocuments(_ context.Context) ([]core.Document, error) {
	return f.docs, nil
}

func (f *fakeEngine) Stats(_ context.Context) (docstore.Stats, error) {
	if f.statsErr != nil {
		return docstore.Stats{}, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeEngine) ActiveIngests() int { return f.active }

// newTestServer builds a *Server wired with the given engine fake and a
// fresh metrics registry.
func newTestServer(e engine) *Server {
	return &Server{
		engine:  e,
		cfg:     &Config{Port: 8080, MaxUploadBytes: DefaultMaxUploadBytes},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry(), func() float64 { return 0 }),
	}
}

// multipartUpload builds a multipart/form-data body with a single "file"
// field carrying the given filename, content type and data. Returns the
// body and the Content-Type header value for the request.
func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return body, mw.FormDataContentType()
}
