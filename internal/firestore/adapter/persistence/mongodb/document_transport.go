package mongodb

import (
	"context"
	"io"
	"time"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/firestore/domain/service"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

// StoredDocument is the persisted form of one document. Documents of every
// database share a collection; Path is the fully-qualified name.
type StoredDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Path         string             `bson:"path"`
	ParentPath   string             `bson:"parentPath"`
	CollectionID string             `bson:"collectionID"`
	DocumentID   string             `bson:"documentID"`
	Fields       bson.M             `bson:"fields"`
	CreateTime   time.Time          `bson:"createTime"`
	UpdateTime   time.Time          `bson:"updateTime"`
}

// DocumentTransport serves batch gets from MongoDB. It is the local backend
// used for development and tests; reads inside a transaction are not isolated.
type DocumentTransport struct {
	collection CollectionInterface
	codec      repository.FieldCodec
	projection service.ProjectionService
	logger     logger.Logger
	disconnect func(context.Context) error
	now        func() time.Time
}

var _ repository.DocumentTransport = (*DocumentTransport)(nil)

// NewDocumentTransport wraps an already opened collection.
func NewDocumentTransport(collection CollectionInterface, codec repository.FieldCodec, log logger.Logger) *DocumentTransport {
	return &DocumentTransport{
		collection: collection,
		codec:      codec,
		projection: service.NewProjectionService(),
		logger:     log.WithComponent("mongodb-transport"),
		now:        time.Now,
	}
}

// Open connects to uri, checks the connection and prepares the documents
// collection.
func Open(ctx context.Context, uri, database, collection string, codec repository.FieldCodec, log logger.Logger) (*DocumentTransport, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewInfrastructureError("cannot connect to MongoDB").WithCause(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.NewInfrastructureError("cannot reach MongoDB").WithCause(err)
	}

	t := NewDocumentTransport(NewMongoCollectionAdapter(client.Database(database).Collection(collection)), codec, log)
	t.disconnect = client.Disconnect
	if err := t.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	t.logger.WithFields(map[string]interface{}{
		"database":   database,
		"collection": collection,
	}).Info("MongoDB transport ready")
	return t, nil
}

// EnsureIndexes creates the unique index on document paths.
func (t *DocumentTransport) EnsureIndexes(ctx context.Context) error {
	_, err := t.collection.CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "path", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("path_unique"),
	})
	if err != nil {
		return errors.NewInfrastructureError("cannot create document path index").WithCause(err)
	}
	return nil
}

// BatchGetDocuments answers every distinct requested name, in request order,
// with either the stored document or a missing result.
func (t *DocumentTransport) BatchGetDocuments(ctx context.Context, req *firestorepb.BatchGetDocumentsRequest) (repository.BatchGetStream, error) {
	mask, err := requestMask(req)
	if err != nil {
		return nil, err
	}
	if req.GetTransaction() != nil || req.GetNewTransaction() != nil {
		t.logger.WithContext(ctx).Debug("MongoDB transport ignores transaction consistency")
	}

	paths := distinctPaths(req.GetDocuments())
	found, err := t.load(ctx, paths)
	if err != nil {
		return nil, err
	}

	readTime := timestamppb.New(t.now())
	responses := make([]*firestorepb.BatchGetDocumentsResponse, 0, len(paths))
	for _, path := range paths {
		resp := &firestorepb.BatchGetDocumentsResponse{ReadTime: readTime}
		if doc, ok := found[path]; ok {
			pb, err := t.toProto(doc, mask)
			if err != nil {
				return nil, err
			}
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Found{Found: pb}
		} else {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Missing{Missing: path}
		}
		responses = append(responses, resp)
	}

	t.logger.WithContext(ctx).Debugf("Loaded %d of %d documents", len(found), len(paths))
	return &responseStream{ctx: ctx, responses: responses}, nil
}

func (t *DocumentTransport) load(ctx context.Context, paths []string) (map[string]*StoredDocument, error) {
	cursor, err := t.collection.Find(ctx, bson.M{"path": bson.M{"$in": paths}})
	if err != nil {
		return nil, errors.NewInfrastructureError("cannot query documents").WithCause(err)
	}
	defer cursor.Close(ctx)

	found := make(map[string]*StoredDocument, len(paths))
	for cursor.Next(ctx) {
		var doc StoredDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.NewDataIntegrityError("cannot decode stored document").WithCause(err)
		}
		found[doc.Path] = &doc
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.NewInfrastructureError("document cursor failed").WithCause(err)
	}
	return found, nil
}

func (t *DocumentTransport) toProto(doc *StoredDocument, mask *model.DocumentMask) (*firestorepb.Document, error) {
	data, err := fromStoredFields(doc.Fields)
	if err != nil {
		return nil, errors.WrapError(err, "stored document is corrupt").WithDetail("path", doc.Path)
	}
	fields, err := t.codec.EncodeFields(t.projection.ApplyProjection(data, mask))
	if err != nil {
		return nil, errors.WrapError(err, "stored document is corrupt").WithDetail("path", doc.Path)
	}
	return &firestorepb.Document{
		Name:       doc.Path,
		Fields:     fields,
		CreateTime: timestamppb.New(doc.CreateTime),
		UpdateTime: timestamppb.New(doc.UpdateTime),
	}, nil
}

// SaveDocument writes data as the full content of ref, keeping the original
// create time when the document already exists. The batch get path never
// writes; SaveDocument seeds the local backend with fixtures.
func (t *DocumentTransport) SaveDocument(ctx context.Context, ref *model.DocumentRef, data map[string]interface{}) error {
	fields, err := toStoredFields(data)
	if err != nil {
		return err
	}
	found, err := t.load(ctx, []string{ref.Path()})
	if err != nil {
		return err
	}

	now := t.now().UTC()
	doc := &StoredDocument{
		Path:         ref.Path(),
		ParentPath:   ref.Parent().Path(),
		CollectionID: ref.Parent().ID(),
		DocumentID:   ref.ID(),
		Fields:       fields,
		CreateTime:   now,
		UpdateTime:   now,
	}
	if existing, ok := found[ref.Path()]; ok {
		doc.ID = existing.ID
		doc.CreateTime = existing.CreateTime
	}

	_, err = t.collection.ReplaceOne(ctx, bson.M{"path": doc.Path}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.NewInfrastructureError("cannot save document").WithCause(err).WithDetail("path", doc.Path)
	}
	return nil
}

// BeginTransaction hands out a random id. MongoDB reads are not tied to it.
func (t *DocumentTransport) BeginTransaction(ctx context.Context, database string) ([]byte, error) {
	id := uuid.New()
	t.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"database":       database,
		"transaction_id": id.String(),
	}).Debug("Transaction started")
	return id[:], nil
}

// Close disconnects the MongoDB client opened by Open.
func (t *DocumentTransport) Close() error {
	if t.disconnect == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.disconnect(ctx); err != nil {
		return errors.NewInfrastructureError("cannot disconnect from MongoDB").WithCause(err)
	}
	return nil
}

func requestMask(req *firestorepb.BatchGetDocumentsRequest) (*model.DocumentMask, error) {
	if req.GetMask() == nil {
		return nil, nil
	}
	paths := req.GetMask().GetFieldPaths()
	if paths == nil {
		paths = []string{}
	}
	return model.NewDocumentMask(paths)
}

func distinctPaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// responseStream replays prepared responses until ctx is done.
type responseStream struct {
	ctx       context.Context
	responses []*firestorepb.BatchGetDocumentsResponse
	next      int
}

func (s *responseStream) Recv() (*firestorepb.BatchGetDocumentsResponse, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if s.next >= len(s.responses) {
		return nil, io.EOF
	}
	resp := s.responses[s.next]
	s.next++
	return resp, nil
}
