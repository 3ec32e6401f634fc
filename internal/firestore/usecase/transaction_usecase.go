package usecase

import (
	"context"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/contextkeys"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

// HasPendingWrites reports whether tx already queued writes. Reads are not
// allowed after that point. A nil tx has none.
func HasPendingWrites(tx repository.TransactionContext) bool {
	return tx != nil && tx.HasPendingWrites()
}

// TransactionUsecase opens transactions on the remote service.
type TransactionUsecase interface {
	BeginTransaction(ctx context.Context) (*model.Transaction, error)
}

type transactionUsecase struct {
	transport repository.DocumentTransport
	database  model.DatabaseName
	logger    logger.Logger
}

// NewTransactionUsecase creates the transaction usecase for one database.
func NewTransactionUsecase(transport repository.DocumentTransport, database model.DatabaseName, log logger.Logger) TransactionUsecase {
	return &transactionUsecase{
		transport: transport,
		database:  database,
		logger:    log.WithComponent("transaction"),
	}
}

func (uc *transactionUsecase) BeginTransaction(ctx context.Context) (*model.Transaction, error) {
	ctx = contextkeys.WithDatabase(ctx, uc.database.ProjectID, uc.database.DatabaseID)
	id, err := uc.transport.BeginTransaction(ctx, uc.database.String())
	if err != nil {
		return nil, errors.FromTransport(err, "begin transaction failed")
	}
	if len(id) == 0 {
		return nil, errors.NewDataIntegrityError("begin transaction returned an empty transaction id")
	}
	uc.logger.WithContext(ctx).Debug("Transaction started")
	return model.NewTransaction(id), nil
}
