package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/logger"
)

// Connect opens the process-wide Mongo client and returns it with the portal
// database. Writes use majority concern so pay request resolution reads its own
// writes inside and outside transactions.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.AppName).
		SetServerSelectionTimeout(10 * time.Second).
		SetWriteConcern(writeconcern.Majority())

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := Ping(connectCtx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.L().Infow("MongoDB ready", "database", cfg.MongoDbName)
	return client, client.Database(cfg.MongoDbName), nil
}

// Disconnect closes the client, waiting up to ten seconds for in-flight operations.
func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return errors.New("mongo client not initialised")
	}
	return client.Ping(ctx, readpref.Primary())
}
