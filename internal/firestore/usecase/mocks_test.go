package usecase_test

import (
	"context"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
)

// MockTransport is a testify mock of repository.DocumentTransport.
type MockTransport struct{ mock.Mock }

func (m *MockTransport) BatchGetDocuments(ctx context.Context, req *firestorepb.BatchGetDocumentsRequest) (repository.BatchGetStream, error) {
	args := m.Called(ctx, req)
	stream, _ := args.Get(0).(repository.BatchGetStream)
	return stream, args.Error(1)
}

func (m *MockTransport) BeginTransaction(ctx context.Context, database string) ([]byte, error) {
	args := m.Called(ctx, database)
	id, _ := args.Get(0).([]byte)
	return id, args.Error(1)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

// scriptedStream replays responses and then ends with err, or io.EOF when
// err is nil.
type scriptedStream struct {
	responses []*firestorepb.BatchGetDocumentsResponse
	err       error
	next      int
}

func newScriptedStream(err error, responses ...*firestorepb.BatchGetDocumentsResponse) *scriptedStream {
	return &scriptedStream{responses: responses, err: err}
}

func (s *scriptedStream) Recv() (*firestorepb.BatchGetDocumentsResponse, error) {
	if s.next < len(s.responses) {
		resp := s.responses[s.next]
		s.next++
		return resp, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

var testReadTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func testDatabase(t *testing.T) model.DatabaseName {
	t.Helper()
	db, err := model.NewDatabaseName("p1", "")
	require.NoError(t, err)
	return db
}

func docRef(t *testing.T, db model.DatabaseName, segments ...string) *model.DocumentRef {
	t.Helper()
	ref, err := model.NewDocumentRef(db, segments...)
	require.NoError(t, err)
	return ref
}

func stringValue(s string) *firestorepb.Value {
	return &firestorepb.Value{ValueType: &firestorepb.Value_StringValue{StringValue: s}}
}

func foundResponse(name string, fields map[string]*firestorepb.Value) *firestorepb.BatchGetDocumentsResponse {
	return &firestorepb.BatchGetDocumentsResponse{
		Result: &firestorepb.BatchGetDocumentsResponse_Found{Found: &firestorepb.Document{
			Name:       name,
			Fields:     fields,
			CreateTime: timestamppb.New(testReadTime.Add(-2 * time.Hour)),
			UpdateTime: timestamppb.New(testReadTime.Add(-time.Hour)),
		}},
		ReadTime: timestamppb.New(testReadTime),
	}
}

func missingResponse(name string) *firestorepb.BatchGetDocumentsResponse {
	return &firestorepb.BatchGetDocumentsResponse{
		Result:   &firestorepb.BatchGetDocumentsResponse_Missing{Missing: name},
		ReadTime: timestamppb.New(testReadTime),
	}
}
