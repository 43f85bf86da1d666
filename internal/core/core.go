// Package core defines the shared domain types for the document
// retrieval engine: documents, chunks, retrieved passages, the document
// lifecycle status machine, and the error taxonomy used across packages.
// It depends on nothing else in this module so every other package can
// import it freely.
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a document.
type Status string

const (
	// StatusPending means the document record exists but its chunks have
	// not yet been embedded and indexed.
	StatusPending Status = "PENDING"
	// StatusReady means all chunks are embedded and present in the vector
	// index. Only READY documents are eligible for retrieval.
	StatusReady Status = "READY"
	// StatusFailed means ingestion failed; the failure cause is recorded
	// on the document and no vector records remain in the index. A FAILED
	// document may re-enter PENDING when a re-ingest is accepted.
	StatusFailed Status = "FAILED"
	// StatusDeleting means deletion has started; index entries may still
	// be present until the delete flow completes.
	StatusDeleting Status = "DELETING"
	// StatusDeleted is the terminal state after a completed delete.
	StatusDeleted Status = "DELETED"
)

// legalTransitions is the set of allowed status transitions. Anything not
// listed here is rejected by CanTransition.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusReady, StatusFailed},
	StatusReady:    {StatusDeleting},
	StatusFailed:   {StatusDeleting, StatusPending},
	StatusDeleting: {StatusDeleted},
}

// CanTransition reports whether moving a document from one status to
// another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a state an ingest or delete flow may
// finish in. Documents are never left in a non-terminal state once their
// pipeline has run to completion.
func Terminal(s Status) bool {
	return s == StatusReady || s == StatusFailed || s == StatusDeleted
}

// Document is the authoritative record of an ingested document. It is
// owned exclusively by the document store.
type Document struct {
	// ID is the opaque unique identifier for this document.
	ID string

	// SourceName is the original file or source name (e.g. "handbook.txt").
	SourceName string

	// MIMEType is the declared MIME type of the uploaded bytes.
	MIMEType string

	// IngestedAt is when the ingest request was accepted.
	IngestedAt time.Time

	// Status is the current lifecycle state.
	Status Status

	// FailureCause records the triggering error when Status is FAILED.
	// Empty otherwise.
	FailureCause string
}

// Chunk is a bounded, offset-addressable slice of a document's extracted
// text. Chunks are owned by their document and destroyed with it.
type Chunk struct {
	// ID is unique across the corpus, derived deterministically from the
	// document ID and the sequence index (see ChunkID).
	ID string

	// DocumentID is a back-reference to the owning document.
	DocumentID string

	// Text is the exact substring of the extracted document text spanned
	// by [StartOffset, EndOffset).
	Text string

	// StartOffset is the inclusive byte offset of Text in the source.
	StartOffset int

	// EndOffset is the exclusive byte offset of Text in the source.
	EndOffset int

	// SequenceIndex is the zero-based position of this chunk within its
	// document. Chunks are ordered by SequenceIndex.
	SequenceIndex int
}

// Passage is a retrieved chunk with provenance and ranking information.
// Passages are ephemeral — produced per query, never persisted.
type Passage struct {
	// ChunkID identifies the retrieved chunk.
	ChunkID string

	// DocumentID identifies the owning document.
	DocumentID string

	// SourceName is the owning document's source name, carried along so
	// callers can cite results without a second lookup.
	SourceName string

	// Text is the chunk text.
	Text string

	// Score is the similarity score assigned by the index, higher is better.
	Score float32

	// Rank is the 1-based position of this passage in the result list.
	Rank int
}

// NewDocumentID returns a fresh opaque document identifier.
func NewDocumentID() string {
	return uuid.NewString()
}

// chunkNamespace is the UUIDv5 namespace for chunk IDs. Fixed so chunk
// IDs are stable across processes and re-ingests of the same document ID.
var chunkNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// ChunkID derives the unique chunk identifier from the owning document ID
// and the chunk's sequence index. The result is a valid UUID so it can be
// used directly as a vector index point ID.
func ChunkID(documentID string, sequenceIndex int) string {
	name := fmt.Sprintf("%s#%d", documentID, sequenceIndex)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
