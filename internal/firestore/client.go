package firestore

import (
	"context"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/firestore/domain/service"
	"firestore-client/internal/firestore/usecase"
	fspath "firestore-client/internal/shared/firestore"
	"firestore-client/internal/shared/logger"
)

// Client is bound to one database. It is fully built by NewClient and safe
// for concurrent use; references it returns are immutable values.
type Client struct {
	database     model.DatabaseName
	transport    repository.DocumentTransport
	batchGet     usecase.BatchGetUsecase
	transactions usecase.TransactionUsecase
	logger       logger.Logger
}

// NewClient wires the usecases over transport. A nil codec selects the
// default value codec.
func NewClient(database model.DatabaseName, transport repository.DocumentTransport, codec repository.FieldCodec, log logger.Logger) *Client {
	if codec == nil {
		codec = service.NewValueCodec()
	}
	log = log.WithFields(map[string]interface{}{"database": database.String()})
	return &Client{
		database:     database,
		transport:    transport,
		batchGet:     usecase.NewBatchGetUsecase(transport, codec, database, log),
		transactions: usecase.NewTransactionUsecase(transport, database, log),
		logger:       log.WithComponent("client"),
	}
}

// Database returns the database every reference of this client lives in.
func (c *Client) Database() model.DatabaseName {
	return c.database
}

// Collection resolves a collection reference. A single argument is split on
// "/"; several arguments are taken as segments.
func (c *Client) Collection(path ...string) (*model.CollectionRef, error) {
	return model.NewCollectionRef(c.database, fspath.SplitPath(path...)...)
}

// Doc resolves a document reference, with the same path rules as Collection.
func (c *Client) Doc(path ...string) (*model.DocumentRef, error) {
	return model.NewDocumentRef(c.database, fspath.SplitPath(path...)...)
}

// FieldPath joins field names with ".". Names are not escaped.
func (c *Client) FieldPath(names ...string) string {
	return fspath.JoinFieldPath(names...)
}

// WriteOption builds a precondition from exactly one selector.
func (c *Client) WriteOption(selectors map[string]interface{}) (model.WriteOption, error) {
	return model.NewWriteOption(selectors)
}

// GetAll retrieves refs with a single request. See usecase.BatchGetUsecase.
func (c *Client) GetAll(ctx context.Context, refs []*model.DocumentRef, fieldPaths []string, tx repository.TransactionContext) (*usecase.DocumentSnapshotIterator, error) {
	return c.batchGet.GetAll(ctx, refs, fieldPaths, tx)
}

// BeginTransaction starts a transaction whose id GetAll can read under.
func (c *Client) BeginTransaction(ctx context.Context) (*model.Transaction, error) {
	return c.transactions.BeginTransaction(ctx)
}

// Close releases the transport.
func (c *Client) Close() error {
	c.logger.Debug("Closing client")
	return c.transport.Close()
}
