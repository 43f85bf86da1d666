// Package orchestrator coordinates the document lifecycle across the
// store, the embedding gateway and the vector index. It owns the one
// invariant everything else leans on: a vector record exists in the
// index iff its chunk exists and the owning document is READY. Ingest
// and delete are serialized per document; queries run lock-free.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/documind-ai/documind-go/internal/chunker"
	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/docstore"
	"github.com/documind-ai/documind-go/internal/embedder"
	"github.com/documind-ai/documind-go/internal/extract"
	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/retrieval"
	"github.com/documind-ai/documind-go/internal/synth"
	"github.com/documind-ai/documind-go/internal/vecindex"
)

// IngestRequest is an accepted document upload.
type IngestRequest struct {
	// SourceName is the original file name (e.g. "handbook.pdf").
	SourceName string
	// MIMEType is the declared MIME type of Data.
	MIMEType string
	// Data is the raw document bytes.
	Data []byte
}

// Result is the outcome of an answered question.
type Result struct {
	// Question is the question as asked.
	Question string
	// Answer is the synthesized answer text.
	Answer string
	// Passages are the retrieved passages the answer is grounded in, in
	// rank order. Each carries the chunk ID, document ID, source name and
	// score, forming the citation list. Empty when nothing was retrieved.
	Passages []core.Passage
	// Elapsed is the total processing time for the question.
	Elapsed time.Duration
}

// Orchestrator is the top-level engine facade. It is safe for
// concurrent use; Close waits for background ingests to finish.
type Orchestrator struct {
	store   docstore.Store
	index   *vecindex.Adapter
	gateway *embedder.Gateway
	chunker *chunker.Chunker
	engine  *retrieval.Engine
	synth   synth.Synthesizer
	log     *slog.Logger

	locks *keyedMutex

	// active tracks in-flight ingest document IDs so the reconciler can
	// tell a live PENDING document from an abandoned one.
	activeMu sync.Mutex
	active   map[string]struct{}

	wg     sync.WaitGroup
	closed chan struct{}
}

// New wires an Orchestrator from its parts. All dependencies are
// required except log, which defaults to slog.Default.
func New(store docstore.Store, index *vecindex.Adapter, gateway *embedder.Gateway,
	chk *chunker.Chunker, engine *retrieval.Engine, synthesizer synth.Synthesizer,
	log *slog.Logger) (*Orchestrator, error) {

	if store == nil || index == nil || gateway == nil || chk == nil || engine == nil || synthesizer == nil {
		return nil, fmt.Errorf("orchestrator: missing dependency: %w", core.ErrConfig)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		index:   index,
		gateway: gateway,
		chunker: chk,
		engine:  engine,
		synth:   synthesizer,
		log:     log,
		locks:   newKeyedMutex(),
		active:  make(map[string]struct{}),
		closed:  make(chan struct{}),
	}, nil
}

// Ingest accepts a document and returns its PENDING record immediately.
// The pipeline (extract, chunk, embed, index) runs in the background and
// completes even if ctx is cancelled; poll with Await or GetDocument.
func (o *Orchestrator) Ingest(ctx context.Context, req IngestRequest) (core.Document, error) {
	doc := core.Document{
		ID:         core.NewDocumentID(),
		SourceName: req.SourceName,
		MIMEType:   req.MIMEType,
		IngestedAt: time.Now().UTC(),
		Status:     core.StatusPending,
	}
	if err := o.store.CreateDocument(ctx, doc); err != nil {
		return core.Document{}, fmt.Errorf("orchestrator: accept ingest: %w", err)
	}
	o.spawnIngest(ctx, doc, req.Data)
	return doc, nil
}

// Reingest re-runs the pipeline for a FAILED document with fresh bytes,
// moving it back to PENDING. Re-ingest replaces the chunk set; nothing
// is deduplicated. Documents in any other state are rejected with
// InvalidState (PENDING is still in flight, READY must be deleted first).
func (o *Orchestrator) Reingest(ctx context.Context, documentID string, data []byte) (core.Document, error) {
	unlock := o.locks.lock(documentID)

	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		unlock()
		return core.Document{}, fmt.Errorf("orchestrator: reingest: %w", err)
	}
	if doc.Status != core.StatusFailed {
		unlock()
		return core.Document{}, fmt.Errorf("orchestrator: reingest of %s document %s: %w",
			doc.Status, documentID, core.ErrInvalidState)
	}
	if err := o.store.SetStatus(ctx, documentID, core.StatusPending); err != nil {
		unlock()
		return core.Document{}, fmt.Errorf("orchestrator: reingest: %w", err)
	}
	doc.Status = core.StatusPending
	doc.FailureCause = ""
	unlock()

	o.spawnIngest(ctx, doc, data)
	return doc, nil
}

// spawnIngest marks the document in flight and launches the pipeline
// detached from the request context.
func (o *Orchestrator) spawnIngest(ctx context.Context, doc core.Document, data []byte) {
	o.activeMu.Lock()
	o.active[doc.ID] = struct{}{}
	o.activeMu.Unlock()

	// WithoutCancel keeps context values (request logger) while detaching
	// the pipeline's lifetime from the request's.
	detached := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.activeMu.Lock()
			delete(o.active, doc.ID)
			o.activeMu.Unlock()
		}()

		unlock := o.locks.lock(doc.ID)
		defer unlock()
		o.runIngest(detached, doc, data)
	}()
}

// runIngest executes the pipeline under the document lock and always
// leaves the document in a terminal state.
func (o *Orchestrator) runIngest(ctx context.Context, doc core.Document, data []byte) {
	log := logging.FromContext(ctx).With("document_id", doc.ID, "source", doc.SourceName)
	start := time.Now()

	err := o.pipeline(ctx, doc, data)
	if err == nil {
		log.Info("document ingested", "elapsed", time.Since(start))
		return
	}

	log.Warn("ingest failed", "error", err)
	if recErr := o.store.RecordFailure(ctx, doc.ID, err); recErr != nil {
		log.Error("could not record ingest failure", "error", recErr)
	}
	if errors.Is(err, core.ErrIndexInconsistency) {
		// Rollback failed inside the index adapter: sweep now rather than
		// waiting for the periodic reconciler.
		if repErr := o.sweepIndex(ctx, doc.ID); repErr != nil {
			log.Error("index repair failed, document queued for reconciliation", "error", repErr)
		}
	}
}

// pipeline is the ingest happy path: extract, chunk, persist chunks,
// embed, index, mark READY.
func (o *Orchestrator) pipeline(ctx context.Context, doc core.Document, data []byte) error {
	text, err := extract.Extract(data, doc.SourceName, doc.MIMEType)
	if err != nil {
		return err
	}

	chunks := o.chunker.Chunk(doc.ID, text)
	if err := o.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return err
	}

	// Embed everything before touching the index: an embedding failure
	// must leave zero vector records behind.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := o.gateway.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	records := make([]vecindex.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vecindex.Record{ChunkID: c.ID, DocumentID: doc.ID, Vector: vectors[i]}
	}
	if err := o.index.Insert(ctx, records); err != nil {
		return err
	}

	return o.store.SetStatus(ctx, doc.ID, core.StatusReady)
}

// Await polls until the document reaches a terminal status or ctx ends.
func (o *Orchestrator) Await(ctx context.Context, documentID string) (core.Document, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		doc, err := o.store.GetDocument(ctx, documentID)
		if err != nil {
			return core.Document{}, err
		}
		if core.Terminal(doc.Status) {
			return doc, nil
		}
		select {
		case <-ctx.Done():
			return core.Document{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Answer retrieves passages for the question and synthesizes an answer
// from them. Zero retrieved passages short-circuit to the fixed
// no-information answer without a synthesis call.
func (o *Orchestrator) Answer(ctx context.Context, question string, params retrieval.Params) (Result, error) {
	start := time.Now()

	passages, err := o.engine.Retrieve(ctx, question, params)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: %w", err)
	}
	if len(passages) == 0 {
		return Result{
			Question: question,
			Answer:   synth.NoAnswer,
			Elapsed:  time.Since(start),
		}, nil
	}

	answer, err := o.synth.Synthesize(ctx, question, passages)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: %w", err)
	}
	return Result{
		Question: question,
		Answer:   answer,
		Passages: passages,
		Elapsed:  time.Since(start),
	}, nil
}

// Delete removes a document: mark DELETING, remove its vectors from the
// index, then remove its chunks and tombstone the record. Once DELETING
// is recorded the remaining steps run on a detached context so a
// cancelled request cannot orphan index entries. A document stuck in
// DELETING from an earlier failed attempt is retried. Unknown and
// already deleted documents return NotFound; a PENDING document cannot
// be deleted while its ingest is in flight.
func (o *Orchestrator) Delete(ctx context.Context, documentID string) error {
	unlock := o.locks.lock(documentID)
	defer unlock()

	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("orchestrator: delete: %w", err)
	}
	switch doc.Status {
	case core.StatusReady, core.StatusFailed:
		if err := o.store.SetStatus(ctx, documentID, core.StatusDeleting); err != nil {
			return fmt.Errorf("orchestrator: delete: %w", err)
		}
	case core.StatusDeleting:
		// Retry of a previously interrupted delete.
	case core.StatusDeleted:
		return fmt.Errorf("orchestrator: document %s already deleted: %w", documentID, core.ErrNotFound)
	default:
		return fmt.Errorf("orchestrator: cannot delete %s document %s: %w",
			doc.Status, documentID, core.ErrInvalidState)
	}

	detached := context.WithoutCancel(ctx)
	if err := o.sweepIndex(detached, documentID); err != nil {
		// Document stays DELETING; the reconciler retries.
		return fmt.Errorf("orchestrator: delete %s: %w", documentID, err)
	}
	if err := o.store.DeleteDocument(detached, documentID); err != nil {
		return fmt.Errorf("orchestrator: delete %s: %w", documentID, err)
	}
	logging.FromContext(ctx).Info("document deleted", "document_id", documentID)
	return nil
}

// sweepIndex removes every index entry belonging to the document's
// current chunk set. Idempotent: absent entries are ignored.
func (o *Orchestrator) sweepIndex(ctx context.Context, documentID string) error {
	chunks, err := o.store.GetChunks(ctx, documentID)
	if err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return o.index.Remove(ctx, ids)
}

// GetDocument returns the current record for a document.
func (o *Orchestrator) GetDocument(ctx context.Context, documentID string) (core.Document, error) {
	return o.store.GetDocument(ctx, documentID)
}

// ListDocuments returns all live documents in insertion order. Reads are
// lock-free and may observe documents mid-transition.
func (o *Orchestrator) ListDocuments(ctx context.Context) ([]core.Document, error) {
	return o.store.ListDocuments(ctx)
}

// Stats returns corpus counters.
func (o *Orchestrator) Stats(ctx context.Context) (docstore.Stats, error) {
	return o.store.Stats(ctx)
}

// ActiveIngests reports the number of in-flight ingest pipelines.
func (o *Orchestrator) ActiveIngests() int {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()
	return len(o.active)
}

// Close waits for in-flight background work to reach terminal states.
func (o *Orchestrator) Close() error {
	select {
	case <-o.closed:
	default:
		close(o.closed)
	}
	o.wg.Wait()
	return nil
}
