package store

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection() *firestore.CollectionRef {
	return s.client.Collection("transactions")
}

// FetchPage needs the composite index (ownerId ASC, createdAt DESC, __name__ DESC).
func (s *transactionStore) FetchPage(ctx context.Context, ownerID string, after *dto.Cursor, limit int) ([]models.Transaction, error) {
	coll := s.collection()
	query := coll.Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if after != nil {
		query = query.StartAfter(after.CreatedAt, coll.Doc(after.ID))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	out := make([]models.Transaction, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to fetch transactions", err)
		}
		var tx models.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
		}
		tx.ID = doc.Ref.ID
		out = append(out, tx)
	}
	return out, nil
}

// Create stores tx under its own id, or under a new auto-id when it has none.
func (s *transactionStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	ref := s.collection().NewDoc()
	if tx.ID != "" {
		ref = s.collection().Doc(tx.ID)
	}
	tx.ID = ref.ID

	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = tx.CreatedAt
	}

	if _, err := ref.Create(ctx, tx); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return models.Transaction{}, errs.NewAlreadyExistsError("transaction already exists")
		}
		return models.Transaction{}, errs.NewDatabaseError("create", "failed to create transaction", err)
	}
	return tx, nil
}

// Update writes only the given fields. An empty receipt removes the field from the document.
func (s *transactionStore) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	ref, snap, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(fields)+1)
	for _, k := range keys {
		v := fields[k]
		if k == "receipt" && v == "" {
			v = firestore.Delete
		}
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, ok := fields["updatedAt"]; !ok {
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now()})
	}

	if _, err := ref.Update(ctx, updates, firestore.LastUpdateTime(snap.UpdateTime)); err != nil {
		return mapWriteError("update", "failed to update transaction", err)
	}
	return nil
}

func (s *transactionStore) Delete(ctx context.Context, ownerID, id string) error {
	ref, snap, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.LastUpdateTime(snap.UpdateTime)); err != nil {
		return mapWriteError("delete", "failed to delete transaction", err)
	}
	return nil
}

// SeedBatch upserts txs in one bulk write; cmd/seed uses it for the demo ledger.
func (s *transactionStore) SeedBatch(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txs))
	for _, tx := range txs {
		job, err := bw.Set(s.collection().Doc(tx.ID), tx)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to schedule seed write", err)
		}
		jobs = append(jobs, job)
	}

	// Flush and close the writer, then wait on each job for errors.
	bw.End()
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			log.Error("seed write failed", "transaction_id", txs[i].ID, "error", err)
			return errs.NewDatabaseError("create", "failed to seed transaction", err)
		}
	}
	return nil
}

// owned loads the document and hides records of other owners behind NotFound.
func (s *transactionStore) owned(ctx context.Context, ownerID, id string) (*firestore.DocumentRef, *firestore.DocumentSnapshot, error) {
	ref := s.collection().Doc(id)
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil, errs.NewNotFoundError("transaction not found")
		}
		return nil, nil, errs.NewDatabaseError("read", "failed to get transaction", err)
	}
	owner, _ := snap.Data()["ownerId"].(string)
	if owner != ownerID {
		return nil, nil, errs.NewNotFoundError("transaction not found")
	}
	return ref, snap, nil
}

func mapWriteError(operation, message string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errs.NewNotFoundError("transaction not found")
	case codes.FailedPrecondition:
		return errs.NewDatabaseError(operation, "transaction changed concurrently", err)
	}
	return errs.NewDatabaseError(operation, message, err)
}
