package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shadematch/backend/internal/domain"
)

// batchLimit caps one BulkWriter flush; Firestore rejects larger batches.
const batchLimit = 500

// FirestoreStore is the primary product catalog backed by a Firestore
// collection. One document per product: a "current" map with the present
// field values and a "changes" map keyed by ISO-8601 timestamp.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	timeout    time.Duration
}

// NewFirestoreStore connects to the named Firestore database and returns a
// store over the given collection. Credentials come from the environment
// unless an explicit option overrides them.
func NewFirestoreStore(
	ctx context.Context,
	projectID, databaseID, collection string,
	timeout time.Duration,
	opts ...option.ClientOption,
) (*FirestoreStore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	log.Printf("[STORE] connected to firestore project=%s database=%s collection=%s",
		projectID, databaseID, collection)
	return &FirestoreStore{
		client:     client,
		collection: collection,
		timeout:    timeout,
	}, nil
}

// Close releases the underlying Firestore connection.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// GetCurrentState returns the current sub-record of one product document.
func (s *FirestoreStore) GetCurrentState(ctx context.Context, productID string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.client.Collection(s.collection).Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStoreUnavailable, productID, err)
	}

	current, ok := snap.Data()["current"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no current state", domain.ErrProductNotFound, productID)
	}
	return current, nil
}

// QueryByField returns all documents whose field at path matches the operator
// and value. The catalog read uses ("current.retailers.<brand>", ">", {}) to
// select every product listed at that retailer.
func (s *FirestoreStore) QueryByField(ctx context.Context, path, op string, value any) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	iter := s.client.Collection(s.collection).Where(path, op, value).Documents(ctx)
	defer iter.Stop()

	var docs []domain.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: query %s %s: %v", domain.ErrStoreUnavailable, path, op, err)
		}
		docs = append(docs, documentFromSnapshot(snap))
	}
	return docs, nil
}

// BatchWrite creates or replaces documents in bulk via BulkWriter, flushing
// every batchLimit writes. Individual write failures are counted, not fatal.
func (s *FirestoreStore) BatchWrite(ctx context.Context, writes []domain.ProductWrite) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	writer := s.client.BulkWriter(ctx)

	var jobs []*firestore.BulkWriterJob
	succeeded, failed := 0, 0
	collect := func() {
		writer.Flush()
		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				log.Printf("[STORE] batch write failed: %v", err)
				failed++
			} else {
				succeeded++
			}
		}
		jobs = jobs[:0]
	}

	for _, w := range writes {
		job, err := writer.Set(s.client.Collection(s.collection).Doc(w.ID), w.Data)
		if err != nil {
			writer.End()
			return succeeded, failed, fmt.Errorf("%w: enqueue %s: %v", domain.ErrStoreUnavailable, w.ID, err)
		}
		jobs = append(jobs, job)
		if len(jobs) >= batchLimit {
			collect()
		}
	}
	collect()
	writer.End()

	log.Printf("[STORE] batch write done: %d succeeded, %d failed", succeeded, failed)
	return succeeded, failed, nil
}

// documentFromSnapshot splits a raw snapshot into the current state and the
// change history.
func documentFromSnapshot(snap *firestore.DocumentSnapshot) domain.Document {
	data := snap.Data()

	doc := domain.Document{ID: snap.Ref.ID}
	if current, ok := data["current"].(map[string]any); ok {
		doc.Current = current
	}
	if rawChanges, ok := data["changes"].(map[string]any); ok {
		doc.Changes = make(map[string]map[string]any, len(rawChanges))
		for ts, change := range rawChanges {
			if changeMap, ok := change.(map[string]any); ok {
				doc.Changes[ts] = changeMap
			}
		}
	}
	return doc
}
