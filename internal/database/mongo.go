package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/marsesrobotics/dashboard/internal/config"
)

// Mongo owns the process-wide MongoDB client. Create it once at start-up and
// Close it on shutdown.
type Mongo struct {
	client *mongo.Client
	dbName string
}

// NewMongo connects and pings the primary within cfg.ConnectTimeout.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{client: client, dbName: cfg.Database}, nil
}

// Database returns the configured application database.
func (m *Mongo) Database() *mongo.Database {
	return m.client.Database(m.dbName)
}

// Close disconnects the client, waiting for in-flight operations up to ctx.
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}
