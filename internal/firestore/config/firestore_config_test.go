package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-client/internal/shared/errors"
)

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv("FIRESTORE_TRANSPORT", "mongodb")
	t.Setenv("MONGODB_COLLECTION", "docs")
	t.Setenv(ConfigFileEnv, "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ProjectID)
	assert.Equal(t, "(default)", cfg.DatabaseID)
	assert.Equal(t, TransportMongoDB, cfg.Transport)
	assert.Equal(t, "docs", cfg.MongoDB.Collection)
	assert.Equal(t, "firestore_client", cfg.MongoDB.Database)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project_id: from-file
emulator_host: localhost:8080
log:
  level: debug
`), 0o600))

	t.Setenv("FIRESTORE_PROJECT_ID", "from-env")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "localhost:8080", cfg.EmulatorHost)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, TransportGRPC, cfg.Transport)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestClientConfig_Validate(t *testing.T) {
	cfg := DefaultClientConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	cfg.ProjectID = "demo"
	assert.NoError(t, cfg.Validate())

	cfg.Transport = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg.Transport = TransportMongoDB
	cfg.MongoDB.URI = ""
	assert.Error(t, cfg.Validate())
}
