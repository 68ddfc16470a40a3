package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/akshat0107/market-sentiment-tracker/backend/internal/logger"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/schema"
)

// codeNamespaceExists is returned by create when the collection is already there.
const codeNamespaceExists = 48

// Client wraps mongo-driver with the helpers the bootstrapper needs.
type Client struct {
	mc  *mongo.Client
	db  *mongo.Database
	log *slog.Logger
}

// New connects to MongoDB and selects database. The driver connects lazily,
// so call Ping to verify the server is reachable.
func New(ctx context.Context, uri, database string, connectTimeout time.Duration, log *slog.Logger) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("mongo-init").
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	mc, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Client{mc: mc, db: mc.Database(database), log: log}, nil
}

// Database returns the name of the selected database.
func (c *Client) Database() string {
	return c.db.Name()
}

// Ping checks that the primary is available.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.mc.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	if err := c.mc.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

// EnsureCollection creates the named collection unless it already exists.
// created reports whether this call created it.
func (c *Client) EnsureCollection(ctx context.Context, name string) (bool, error) {
	existing, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	if len(existing) > 0 {
		c.log.Debug("collection exists", slog.String("collection", name))
		return false, nil
	}

	if err := c.db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExists(err) {
			c.log.Debug("collection created concurrently", slog.String("collection", name))
			return false, nil
		}
		return false, fmt.Errorf("create collection: %w", err)
	}

	c.log.Debug("collection created", slog.String("collection", name))
	return true, nil
}

// EnsureIndex creates idx on collection under its default name. Creating an
// index that already exists with the same keys is a no-op on the server.
func (c *Client) EnsureIndex(ctx context.Context, collection string, idx schema.Index) (string, error) {
	name, err := c.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: idx.Document(),
	})
	if err != nil {
		return "", fmt.Errorf("create index %s: %w", idx.Name(), err)
	}

	c.log.Debug("index ensured",
		slog.String("collection", collection),
		slog.String("index", name),
	)
	return name, nil
}

// CollectionNames lists the collections of the database, sorted.
func (c *Client) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := c.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// IndexNames lists the index names of collection, sorted. The result
// includes the primary _id_ index.
func (c *Client) IndexNames(ctx context.Context, collection string) ([]string, error) {
	specs, err := c.db.Collection(collection).Indexes().ListSpecifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", collection, err)
	}

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Drop removes the whole database.
func (c *Client) Drop(ctx context.Context) error {
	if err := c.db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeNamespaceExists
	}
	return false
}
