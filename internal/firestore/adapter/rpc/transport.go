package rpc

import (
	"context"

	vkit "cloud.google.com/go/firestore/apiv1"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/logger"
)

// ResourcePrefixHeader routes every call to the client's database.
const ResourcePrefixHeader = "google-cloud-resource-prefix"

// firestoreClient defines the methods of the generated client this transport
// calls. It is satisfied by *vkit.Client and lets tests decorate or replace it.
type firestoreClient interface {
	BatchGetDocuments(ctx context.Context, req *firestorepb.BatchGetDocumentsRequest, opts ...gax.CallOption) (firestorepb.Firestore_BatchGetDocumentsClient, error)
	BeginTransaction(ctx context.Context, req *firestorepb.BeginTransactionRequest, opts ...gax.CallOption) (*firestorepb.BeginTransactionResponse, error)
	Close() error
}

// Config selects where the transport connects.
type Config struct {
	// EmulatorHost, when set, dials host:port without TLS or credentials.
	EmulatorHost string
	// Endpoint overrides the production endpoint.
	Endpoint string
	// Options are appended after the ones derived from the fields above.
	Options []option.ClientOption
}

// Transport talks to Firestore over the generated gRPC client.
type Transport struct {
	client         firestoreClient
	resourcePrefix string
	logger         logger.Logger
}

var _ repository.DocumentTransport = (*Transport)(nil)

// NewTransport dials Firestore for database.
func NewTransport(ctx context.Context, database model.DatabaseName, cfg Config, log logger.Logger) (*Transport, error) {
	client, err := vkit.NewClient(ctx, ClientOptions(cfg)...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create firestore gRPC client")
	}
	log.WithFields(map[string]interface{}{
		"database": database.String(),
		"emulator": cfg.EmulatorHost != "",
	}).Info("Firestore gRPC transport ready")
	return newTransport(client, database, log), nil
}

func newTransport(client firestoreClient, database model.DatabaseName, log logger.Logger) *Transport {
	return &Transport{
		client:         client,
		resourcePrefix: database.String(),
		logger:         log.WithComponent("grpc-transport"),
	}
}

// ClientOptions turns cfg into client options.
func ClientOptions(cfg Config) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		opts = append(opts,
			option.WithEndpoint(cfg.EmulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return append(opts, cfg.Options...)
}

func (t *Transport) outgoing(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, ResourcePrefixHeader, t.resourcePrefix)
}

// BatchGetDocuments opens the server stream. The returned stream is bound to
// ctx; cancelling ctx abandons it.
func (t *Transport) BatchGetDocuments(ctx context.Context, req *firestorepb.BatchGetDocumentsRequest) (repository.BatchGetStream, error) {
	stream, err := t.client.BatchGetDocuments(t.outgoing(ctx), req)
	if err != nil {
		return nil, errors.WithMessage(err, "BatchGetDocuments")
	}
	return stream, nil
}

// BeginTransaction starts a read-write transaction and returns its id.
func (t *Transport) BeginTransaction(ctx context.Context, database string) ([]byte, error) {
	resp, err := t.client.BeginTransaction(t.outgoing(ctx), &firestorepb.BeginTransactionRequest{Database: database})
	if err != nil {
		return nil, errors.WithMessage(err, "BeginTransaction")
	}
	return resp.GetTransaction(), nil
}

// Close releases the underlying connection.
func (t *Transport) Close() error {
	if err := t.client.Close(); err != nil {
		return errors.Wrap(err, "cannot close firestore gRPC client")
	}
	t.logger.Debug("Firestore gRPC transport closed")
	return nil
}
