package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/goccy/go-yaml"

	"firestore-client/internal/shared/errors"
)

// ConfigFileEnv names an optional YAML file whose values override the
// environment.
const ConfigFileEnv = "FIRESTORE_CONFIG_FILE"

// Supported transports.
const (
	TransportGRPC    = "grpc"
	TransportMongoDB = "mongodb"
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017" yaml:"uri" json:"uri"`
	Database   string `env:"MONGODB_DATABASE" envDefault:"firestore_client" yaml:"database" json:"database"`
	Collection string `env:"MONGODB_COLLECTION" envDefault:"documents" yaml:"collection" json:"collection"`
}

// Logger backends.
const (
	LogBackendLogrus = "logrus"
	LogBackendZap    = "zap"
)

// LogConfig holds logger settings.
type LogConfig struct {
	Backend string `env:"LOG_BACKEND" envDefault:"logrus" yaml:"backend" json:"backend"`
	Level   string `env:"LOG_LEVEL" envDefault:"info" yaml:"level" json:"level"`
	Format  string `env:"LOG_FORMAT" envDefault:"text" yaml:"format" json:"format"`
}

// ClientConfig holds all configuration for the client.
type ClientConfig struct {
	ProjectID  string `env:"FIRESTORE_PROJECT_ID" yaml:"project_id" json:"project_id"`
	DatabaseID string `env:"FIRESTORE_DATABASE_ID" envDefault:"(default)" yaml:"database_id" json:"database_id"`
	// Transport is grpc or mongodb.
	Transport string `env:"FIRESTORE_TRANSPORT" envDefault:"grpc" yaml:"transport" json:"transport"`
	// EmulatorHost switches the grpc transport to an unauthenticated emulator.
	EmulatorHost string `env:"FIRESTORE_EMULATOR_HOST" yaml:"emulator_host" json:"emulator_host"`
	Endpoint     string `env:"FIRESTORE_ENDPOINT" yaml:"endpoint" json:"endpoint"`

	MongoDB MongoConfig `yaml:"mongodb" json:"mongodb"`
	Log     LogConfig   `yaml:"log" json:"log"`
}

// LoadConfig loads configuration from environment variables, applies the
// file named by FIRESTORE_CONFIG_FILE on top and validates the result.
func LoadConfig() (*ClientConfig, error) {
	cfg := &ClientConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewValidationError("failed to load client configuration from environment").WithCause(err)
	}
	if err := env.Parse(&cfg.MongoDB); err != nil {
		return nil, errors.NewValidationError("failed to load MongoDB configuration from environment").WithCause(err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, errors.NewValidationError("failed to load log configuration from environment").WithCause(err)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *ClientConfig) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewValidationError("cannot read config file").WithDetail("path", path).WithCause(err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.NewValidationError("cannot parse config file").WithDetail("path", path).WithCause(err)
	}
	return nil
}

// Validate checks that the configuration can build a client.
func (c *ClientConfig) Validate() error {
	ve := errors.NewValidationErrors()
	if c.ProjectID == "" {
		ve.Add("project_id", "FIRESTORE_PROJECT_ID is not set", c.ProjectID)
	}
	switch c.Transport {
	case TransportGRPC:
	case TransportMongoDB:
		if c.MongoDB.URI == "" {
			ve.Add("mongodb.uri", "MONGODB_URI is required by the mongodb transport", c.MongoDB.URI)
		}
	default:
		ve.Add("transport", fmt.Sprintf("unknown transport %q", c.Transport), c.Transport)
	}
	if c.Log.Backend != LogBackendLogrus && c.Log.Backend != LogBackendZap {
		ve.Add("log.backend", fmt.Sprintf("unknown log backend %q", c.Log.Backend), c.Log.Backend)
	}
	if appErr := ve.ToAppError(); appErr != nil {
		return appErr
	}
	return nil
}

// DefaultClientConfig returns a ClientConfig with default values.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		DatabaseID: "(default)",
		Transport:  TransportGRPC,
		MongoDB: MongoConfig{
			URI:        "mongodb://localhost:27017", // Default for local development
			Database:   "firestore_client",
			Collection: "documents",
		},
		Log: LogConfig{Backend: LogBackendLogrus, Level: "info", Format: "text"},
	}
}
