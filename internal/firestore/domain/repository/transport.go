package repository

import (
	"context"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
)

// BatchGetStream yields batch-get responses until it returns io.EOF.
// firestorepb.Firestore_BatchGetDocumentsClient satisfies it.
type BatchGetStream interface {
	Recv() (*firestorepb.BatchGetDocumentsResponse, error)
}

// DocumentTransport is the RPC surface the client logic sits on. Retries,
// timeouts and authentication belong to implementations.
type DocumentTransport interface {
	// BatchGetDocuments sends one multiplexed request. Responses may arrive
	// in any order and duplicate paths may be answered once.
	BatchGetDocuments(ctx context.Context, req *firestorepb.BatchGetDocumentsRequest) (BatchGetStream, error)
	// BeginTransaction returns a new transaction id for database.
	BeginTransaction(ctx context.Context, database string) ([]byte, error)
	Close() error
}

// TransactionContext is the read-only view of a transaction that reads need.
type TransactionContext interface {
	ID() []byte
	HasPendingWrites() bool
}

// FieldCodec converts between wire field values and plain Go values.
type FieldCodec interface {
	DecodeFields(fields map[string]*firestorepb.Value) (map[string]interface{}, error)
	EncodeFields(data map[string]interface{}) (map[string]*firestorepb.Value, error)
}
