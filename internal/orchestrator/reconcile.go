package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/logging"
)

// DefaultReconcileInterval is the period of the background sweep.
const DefaultReconcileInterval = time.Minute

// Reconcile sweeps every non-READY document and repairs drift: vectors
// may exist in the index only for chunks of READY documents. FAILED
// documents get their index entries removed, stuck DELETING documents
// have their delete completed, and PENDING documents with no in-flight
// pipeline (a crashed or interrupted ingest) are failed and swept.
// The sweep is idempotent; errors on one document do not stop the rest.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	docs, err := o.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: reconcile: %w", err)
	}

	var errs []error
	for _, doc := range docs {
		if doc.Status == core.StatusReady {
			continue
		}
		if o.ingestInFlight(doc.ID) {
			continue
		}
		if err := o.reconcileDocument(ctx, doc.ID); err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("orchestrator: reconcile: %w", errors.Join(errs...))
	}
	return nil
}

// reconcileDocument repairs one document under its lock. The status is
// re-read after acquiring the lock: it may have moved since listing.
func (o *Orchestrator) reconcileDocument(ctx context.Context, documentID string) error {
	unlock := o.locks.lock(documentID)
	defer unlock()

	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx).With("document_id", documentID, "status", doc.Status)

	switch doc.Status {
	case core.StatusReady, core.StatusDeleted:
		return nil

	case core.StatusPending:
		// An ingest that never reached a terminal state: the process died
		// or the pipeline was lost. Restore the invariant and record why.
		if o.ingestInFlight(documentID) {
			return nil
		}
		if err := o.sweepIndex(ctx, documentID); err != nil {
			return err
		}
		if err := o.store.RecordFailure(ctx, documentID, errors.New("ingestion interrupted")); err != nil {
			return err
		}
		log.Warn("interrupted ingest failed by reconciler")
		return nil

	case core.StatusFailed:
		// FAILED must leave no vectors behind; sweep in case a rollback
		// never completed.
		if err := o.sweepIndex(ctx, documentID); err != nil {
			return err
		}
		return nil

	case core.StatusDeleting:
		if err := o.sweepIndex(ctx, documentID); err != nil {
			return err
		}
		if err := o.store.DeleteDocument(ctx, documentID); err != nil {
			return err
		}
		log.Info("stuck delete completed by reconciler")
		return nil
	}
	return nil
}

func (o *Orchestrator) ingestInFlight(documentID string) bool {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()
	_, ok := o.active[documentID]
	return ok
}

// StartReconciler runs Reconcile every interval until ctx is cancelled
// or the orchestrator is closed. Interval 0 selects the default.
func (o *Orchestrator) StartReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-o.closed:
				return
			case <-ticker.C:
				if err := o.Reconcile(ctx); err != nil {
					logging.FromContext(ctx).Warn("reconciliation sweep incomplete", "error", err)
				}
			}
		}
	}()
}
