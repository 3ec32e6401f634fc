package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewUsageError("bad option").WithDetail("selector", "exists").WithComponent("write-option")
	assert.Equal(t, ErrorTypeUsage, err.Type)
	assert.Equal(t, "bad option", err.Message)
	assert.Equal(t, codes.InvalidArgument, err.Code)
	assert.Equal(t, "write-option", err.Component)
	assert.Equal(t, "exists", err.Details["selector"])
	assert.Equal(t, "bad option", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	err := NewFailedPreconditionError("read after write").WithCause(ErrReadAfterWrite)
	assert.Equal(t, ErrReadAfterWrite, err.Unwrap())
	assert.Equal(t, "read after write: read after write is not allowed", err.Error())
	assert.True(t, IsUsage(err))
}

func TestAppError_GRPCStatus(t *testing.T) {
	err := NewDataIntegrityError("unexpected path")
	assert.Equal(t, codes.DataLoss, status.Code(err))

	wrapped := fmt.Errorf("get all: %w", err)
	assert.True(t, IsDataIntegrity(wrapped))
	assert.False(t, IsUsage(wrapped))
}

func TestFromTransport(t *testing.T) {
	assert.Nil(t, FromTransport(nil, "ignored"))

	grpcErr := status.Error(codes.Unavailable, "connection reset")
	appErr := FromTransport(grpcErr, "batch get failed")
	assert.Equal(t, ErrorTypeInfrastructure, appErr.Type)
	assert.Equal(t, codes.Unavailable, appErr.Code)
	assert.ErrorIs(t, appErr, grpcErr)

	wrapped := FromTransport(fmt.Errorf("recv: %w", grpcErr), "stream failed")
	assert.Equal(t, codes.Unavailable, wrapped.Code)

	usage := NewUsageError("bad")
	assert.Same(t, usage, FromTransport(usage, "ignored"))
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.Nil(t, ve.ToAppError())
	ve.Add("path", "must not be empty", "")
	assert.True(t, ve.HasErrors())
	appErr := ve.ToAppError()
	assert.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.True(t, IsUsage(appErr))
	assert.True(t, IsValidation(appErr))
}

func TestWrapError(t *testing.T) {
	usage := NewUsageError("bad")
	assert.Same(t, usage, WrapError(usage, "ignored"))

	plain := fmt.Errorf("boom")
	wrapped := WrapError(plain, "internal")
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.ErrorIs(t, wrapped, plain)
}
