package logger

import (
	"bytes"
	"context"
	"testing"

	"firestore-client/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewNopLogger()
	var _ Logger = NewZapLogger(nil)
}

func TestLogrusLogger_JSONCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := newLogrus("debug", "json", &buf)

	ctx := contextkeys.WithOperation(context.Background(), "req-1", "GetAll")
	ctx = contextkeys.WithDatabase(ctx, "p1", "(default)")
	log.WithContext(ctx).WithComponent("batch-get").Debug("issuing request")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"operation":"GetAll"`)
	assert.Contains(t, out, `"project_id":"p1"`)
	assert.Contains(t, out, `"database_id":"(default)"`)
	assert.Contains(t, out, `"component":"batch-get"`)
	assert.Contains(t, out, `"message":"issuing request"`)
}

func TestLogrusLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogrus("chatty", "text", &buf)
	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.WithFields(map[string]interface{}{"paths": 2}).WithComponent("grpc-transport").Info("batch get")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "batch get", entries[0].Message)
		assert.EqualValues(t, 2, fields["paths"])
		assert.Equal(t, "grpc-transport", fields["component"])
	}
}

func TestNewZapLoggerWithConfig(t *testing.T) {
	log, err := NewZapLoggerWithConfig("debug", "json")
	require.NoError(t, err)
	require.NotNil(t, log)
	log.WithComponent("test").Debug("zap ready")

	log, err = NewZapLoggerWithConfig("not-a-level", "text")
	require.NoError(t, err)
	assert.NotNil(t, log)
}
