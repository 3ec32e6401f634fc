package usecase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/contextkeys"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

// BatchGetUsecase retrieves several documents with one request.
type BatchGetUsecase interface {
	// GetAll starts a batch get. Results come back in delivery order, not in
	// the order of refs, and a document requested twice is answered once.
	// fieldPaths nil means all fields. A transaction that already queued
	// writes is rejected before anything is sent.
	GetAll(ctx context.Context, refs []*model.DocumentRef, fieldPaths []string, tx repository.TransactionContext) (*DocumentSnapshotIterator, error)
}

type batchGetUsecase struct {
	transport repository.DocumentTransport
	codec     repository.FieldCodec
	database  model.DatabaseName
	logger    logger.Logger
}

// NewBatchGetUsecase creates the batch get usecase for one database.
func NewBatchGetUsecase(transport repository.DocumentTransport, codec repository.FieldCodec, database model.DatabaseName, log logger.Logger) BatchGetUsecase {
	return &batchGetUsecase{
		transport: transport,
		codec:     codec,
		database:  database,
		logger:    log.WithComponent("batch-get"),
	}
}

func (uc *batchGetUsecase) GetAll(ctx context.Context, refs []*model.DocumentRef, fieldPaths []string, tx repository.TransactionContext) (*DocumentSnapshotIterator, error) {
	if HasPendingWrites(tx) {
		return nil, errors.NewFailedPreconditionError("cannot read in this transaction").
			WithCause(errors.ErrReadAfterWrite)
	}
	if err := uc.validateRefs(refs); err != nil {
		return nil, err
	}
	mask, err := model.NewDocumentMask(fieldPaths)
	if err != nil {
		return nil, err
	}

	rec := NewReconciler(refs, uc.codec)
	req := &firestorepb.BatchGetDocumentsRequest{
		Database:  uc.database.String(),
		Documents: rec.Paths(),
		Mask:      mask.Proto(),
	}
	if id := transactionID(tx); id != nil {
		req.ConsistencySelector = &firestorepb.BatchGetDocumentsRequest_Transaction{Transaction: id}
	}

	ctx = contextkeys.WithOperation(ctx, uuid.NewString(), "GetAll")
	ctx = contextkeys.WithDatabase(ctx, uc.database.ProjectID, uc.database.DatabaseID)
	log := uc.logger.WithContext(ctx)
	log.WithFields(map[string]interface{}{
		"documents": len(req.Documents),
		"distinct":  rec.Distinct(),
		"masked":    mask != nil,
		"in_tx":     req.GetTransaction() != nil,
	}).Debug("Issuing batch get")

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := uc.transport.BatchGetDocuments(streamCtx, req)
	if err != nil {
		cancel()
		log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Batch get request failed")
		return nil, errors.FromTransport(err, "batch get request failed")
	}
	return newDocumentSnapshotIterator(stream, rec, cancel, log), nil
}

func (uc *batchGetUsecase) validateRefs(refs []*model.DocumentRef) error {
	if len(refs) == 0 {
		return errors.NewUsageError("at least one document reference is required")
	}
	for i, ref := range refs {
		if ref == nil {
			return errors.NewUsageError(fmt.Sprintf("document reference %d is nil", i))
		}
		if ref.Database() != uc.database {
			return errors.NewUsageError("document reference belongs to another database").
				WithDetail("path", ref.Path()).
				WithDetail("database", uc.database.String())
		}
	}
	return nil
}

func transactionID(tx repository.TransactionContext) []byte {
	if tx == nil {
		return nil
	}
	id := tx.ID()
	if len(id) == 0 {
		return nil
	}
	return id
}
