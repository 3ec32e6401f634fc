package di

import (
	"context"
	"fmt"
	"sync"

	"firestore-client/internal/firestore"
	"firestore-client/internal/firestore/adapter/persistence/mongodb"
	"firestore-client/internal/firestore/adapter/rpc"
	"firestore-client/internal/firestore/config"
	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/firestore/domain/service"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

// TransportFactory opens the transport named by the configuration.
type TransportFactory func(ctx context.Context, cfg *config.ClientConfig, database model.DatabaseName, codec repository.FieldCodec, log logger.Logger) (repository.DocumentTransport, error)

// Container owns the client and everything it was built from.
type Container struct {
	mu sync.RWMutex
	// Configuration
	Config *config.ClientConfig
	// Logger
	Logger logger.Logger

	transports map[string]TransportFactory
	client     *firestore.Client
}

// NewContainer creates a container with the grpc and mongodb transports
// registered.
func NewContainer() *Container {
	c := &Container{transports: make(map[string]TransportFactory)}
	c.RegisterTransport(config.TransportGRPC, newGRPCTransport)
	c.RegisterTransport(config.TransportMongoDB, newMongoTransport)
	return c
}

// RegisterTransport adds or replaces the factory for a transport name.
func (c *Container) RegisterTransport(name string, factory TransportFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transports[name] = factory
}

// Initialize builds the client from cfg. A nil Logger is created from cfg.
func (c *Container) Initialize(ctx context.Context, cfg *config.ClientConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return fmt.Errorf("container is already initialized")
	}

	if c.Logger == nil {
		log, err := newLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		c.Logger = log
	}
	c.Config = cfg

	database, err := model.NewDatabaseName(cfg.ProjectID, cfg.DatabaseID)
	if err != nil {
		return err
	}
	factory, ok := c.transports[cfg.Transport]
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("transport %q is not available", cfg.Transport)).
			WithCause(errors.ErrTransportNotEnabled)
	}

	codec := service.NewValueCodec()
	transport, err := factory(ctx, cfg, database, codec, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open %s transport: %w", cfg.Transport, err)
	}

	c.client = firestore.NewClient(database, transport, codec, c.Logger)
	c.Logger.WithFields(map[string]interface{}{
		"database":  database.String(),
		"transport": cfg.Transport,
	}).Info("Client initialized")
	return nil
}

// GetClient returns the client, or nil before Initialize.
func (c *Container) GetClient() *firestore.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Close releases the client's transport.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}
	return nil
}

func newGRPCTransport(ctx context.Context, cfg *config.ClientConfig, database model.DatabaseName, _ repository.FieldCodec, log logger.Logger) (repository.DocumentTransport, error) {
	return rpc.NewTransport(ctx, database, rpc.Config{
		EmulatorHost: cfg.EmulatorHost,
		Endpoint:     cfg.Endpoint,
	}, log)
}

func newMongoTransport(ctx context.Context, cfg *config.ClientConfig, _ model.DatabaseName, codec repository.FieldCodec, log logger.Logger) (repository.DocumentTransport, error) {
	return mongodb.Open(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection, codec, log)
}

func newLogger(cfg config.LogConfig) (logger.Logger, error) {
	if cfg.Backend == config.LogBackendZap {
		return logger.NewZapLoggerWithConfig(cfg.Level, cfg.Format)
	}
	return logger.NewLoggerWithConfig(cfg.Level, cfg.Format), nil
}
