package usecase_test

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/service"
	. "firestore-client/internal/firestore/usecase"
	"firestore-client/internal/shared/contextkeys"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

func newBatchGet(t *testing.T, transport *MockTransport) BatchGetUsecase {
	t.Helper()
	return NewBatchGetUsecase(transport, service.NewValueCodec(), testDatabase(t), logger.NewNopLogger())
}

func TestGetAll_MissingThenFound(t *testing.T) {
	db := testDatabase(t)
	alice := docRef(t, db, "users", "alice")
	bob := docRef(t, db, "users", "bob")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).Return(newScriptedStream(nil,
		missingResponse(alice.Path()),
		foundResponse(bob.Path(), map[string]*firestorepb.Value{"name": stringValue("Alice")}),
	), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{alice, bob}, nil, nil)
	require.NoError(t, err)

	snaps, err := it.GetAll()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Nil(t, snaps[0])
	require.NotNil(t, snaps[1])
	assert.Same(t, bob, snaps[1].Ref)
	assert.Equal(t, "Alice", snaps[1].Data()["name"])
	transport.AssertExpectations(t)
}

func TestGetAll_RequestShape(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")
	b := docRef(t, db, "users", "b")
	tx := model.NewTransaction([]byte("tx-1"))

	var sent *firestorepb.BatchGetDocumentsRequest
	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*firestorepb.BatchGetDocumentsRequest) }).
		Return(newScriptedStream(nil, missingResponse(a.Path()), missingResponse(b.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a, b, a}, []string{"a.b", "c"}, tx)
	require.NoError(t, err)
	snaps, err := it.GetAll()
	require.NoError(t, err)
	assert.Equal(t, []*model.DocumentSnapshot{nil, nil}, snaps)

	require.NotNil(t, sent)
	assert.Equal(t, "projects/p1/databases/(default)", sent.GetDatabase())
	assert.Equal(t, []string{a.Path(), b.Path(), a.Path()}, sent.GetDocuments())
	assert.Equal(t, []string{"a.b", "c"}, sent.GetMask().GetFieldPaths())
	assert.Equal(t, []byte("tx-1"), sent.GetTransaction())
}

func TestGetAll_TagsTransportContext(t *testing.T) {
	db := testDatabase(t)
	alice := docRef(t, db, "users", "alice")

	var sentCtx context.Context
	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sentCtx = args.Get(0).(context.Context) }).
		Return(newScriptedStream(nil, missingResponse(alice.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{alice}, nil, nil)
	require.NoError(t, err)
	_, err = it.GetAll()
	require.NoError(t, err)

	require.NotNil(t, sentCtx)
	assert.NotEmpty(t, contextkeys.RequestID(sentCtx))
	assert.Equal(t, "GetAll", sentCtx.Value(contextkeys.OperationKey))
	assert.Equal(t, "p1", sentCtx.Value(contextkeys.ProjectIDKey))
	assert.Equal(t, "(default)", sentCtx.Value(contextkeys.DatabaseIDKey))
}

func TestGetAll_NoMaskNoTransaction(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.MatchedBy(func(req *firestorepb.BatchGetDocumentsRequest) bool {
		return req.GetMask() == nil && req.GetConsistencySelector() == nil
	})).Return(newScriptedStream(nil, missingResponse(a.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a}, nil, model.NewTransaction(nil))
	require.NoError(t, err)
	_, err = it.GetAll()
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestGetAll_EmptyMaskIsSent(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.MatchedBy(func(req *firestorepb.BatchGetDocumentsRequest) bool {
		return req.GetMask() != nil && len(req.GetMask().GetFieldPaths()) == 0
	})).Return(newScriptedStream(nil, missingResponse(a.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a}, []string{}, nil)
	require.NoError(t, err)
	it.Stop()
	transport.AssertExpectations(t)
}

func TestGetAll_ReadAfterWrite(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")
	tx := model.NewTransaction([]byte("tx-1"))
	require.NoError(t, tx.Delete(a))

	transport := &MockTransport{}
	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a}, nil, tx)
	require.Error(t, err)
	assert.Nil(t, it)
	assert.True(t, errors.IsUsage(err))
	assert.ErrorIs(t, err, errors.ErrReadAfterWrite)
	transport.AssertNotCalled(t, "BatchGetDocuments", mock.Anything, mock.Anything)
}

func TestGetAll_RejectsBadReferences(t *testing.T) {
	db := testDatabase(t)
	other, err := model.NewDatabaseName("p2", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		refs []*model.DocumentRef
	}{
		{name: "empty", refs: nil},
		{name: "nil reference", refs: []*model.DocumentRef{docRef(t, db, "users", "a"), nil}},
		{name: "other database", refs: []*model.DocumentRef{docRef(t, other, "users", "a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &MockTransport{}
			_, err := newBatchGet(t, transport).GetAll(context.Background(), tt.refs, nil, nil)
			require.Error(t, err)
			assert.True(t, errors.IsUsage(err))
			transport.AssertNotCalled(t, "BatchGetDocuments", mock.Anything, mock.Anything)
		})
	}
}

func TestGetAll_RejectsBadMask(t *testing.T) {
	db := testDatabase(t)
	transport := &MockTransport{}
	_, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{docRef(t, db, "users", "a")}, []string{"a..b"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsUsage(err))
}

func TestGetAll_TransportRefusesRequest(t *testing.T) {
	db := testDatabase(t)
	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Return(nil, status.Error(codes.Unavailable, "backend down"))

	_, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{docRef(t, db, "users", "a")}, nil, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, codes.Unavailable, appErr.Code)
	assert.False(t, errors.IsUsage(err))
}

func TestDocumentSnapshotIterator_StreamErrorIsSticky(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")
	b := docRef(t, db, "users", "b")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Return(newScriptedStream(status.Error(codes.Internal, "reset"), missingResponse(a.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a, b}, nil, nil)
	require.NoError(t, err)

	snap, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, snap)

	_, err = it.Next()
	require.Error(t, err)
	_, again := it.Next()
	assert.Equal(t, err, again)
}

func TestDocumentSnapshotIterator_UnderDelivery(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")
	b := docRef(t, db, "users", "b")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Return(newScriptedStream(nil, missingResponse(b.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a, b}, nil, nil)
	require.NoError(t, err)

	snaps, err := it.GetAll()
	require.Error(t, err)
	assert.Len(t, snaps, 1)
	assert.True(t, errors.IsDataIntegrity(err))
	assert.ErrorIs(t, err, errors.ErrIncompleteResponse)
}

func TestDocumentSnapshotIterator_StopCancelsStream(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")

	var streamCtx context.Context
	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { streamCtx = args.Get(0).(context.Context) }).
		Return(newScriptedStream(nil, missingResponse(a.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, streamCtx)
	assert.NoError(t, streamCtx.Err())

	it.Stop()
	it.Stop()
	assert.Error(t, streamCtx.Err())

	_, err = it.Next()
	assert.Equal(t, iterator.Done, err)
}

func TestDocumentSnapshotIterator_DoneAfterLastResult(t *testing.T) {
	db := testDatabase(t)
	a := docRef(t, db, "users", "a")

	transport := &MockTransport{}
	transport.On("BatchGetDocuments", mock.Anything, mock.Anything).
		Return(newScriptedStream(nil, missingResponse(a.Path())), nil)

	it, err := newBatchGet(t, transport).GetAll(context.Background(), []*model.DocumentRef{a}, nil, nil)
	require.NoError(t, err)

	_, err = it.Next()
	require.NoError(t, err)
	_, err = it.Next()
	assert.Equal(t, iterator.Done, err)
	_, err = it.Next()
	assert.Equal(t, iterator.Done, err)
}
