package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akshat0107/market-sentiment-tracker/backend/internal/logger"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/schema"
)

// Store is the subset of the database client the bootstrapper drives.
type Store interface {
	EnsureCollection(ctx context.Context, name string) (bool, error)
	EnsureIndex(ctx context.Context, collection string, idx schema.Index) (string, error)
}

// Report summarises one run.
type Report struct {
	CollectionsCreated  []string
	CollectionsExisting []string
	Indexes             []string
}

// Bootstrapper applies a layout to a store.
type Bootstrapper struct {
	store  Store
	layout schema.Layout
	log    *slog.Logger
}

// New returns a Bootstrapper for layout.
func New(store Store, layout schema.Layout, log *slog.Logger) *Bootstrapper {
	if log == nil {
		log = logger.Discard()
	}
	return &Bootstrapper{store: store, layout: layout, log: log}
}

// Run creates every collection, then every index, in declaration order.
// It stops at the first failure and returns it wrapped.
func (b *Bootstrapper) Run(ctx context.Context) (Report, error) {
	var report Report

	if err := b.layout.Validate(); err != nil {
		return report, fmt.Errorf("invalid layout: %w", err)
	}

	b.log.Info("Initializing Market Data Database", slog.String("database", b.layout.Database))

	for _, c := range b.layout.Collections {
		created, err := b.store.EnsureCollection(ctx, c.Name)
		if err != nil {
			return report, fmt.Errorf("collection %s: %w", c.Name, err)
		}
		if created {
			report.CollectionsCreated = append(report.CollectionsCreated, c.Name)
		} else {
			report.CollectionsExisting = append(report.CollectionsExisting, c.Name)
		}
	}

	for _, c := range b.layout.Collections {
		for _, idx := range c.Indexes {
			name, err := b.store.EnsureIndex(ctx, c.Name, idx)
			if err != nil {
				return report, fmt.Errorf("collection %s: %w", c.Name, err)
			}
			report.Indexes = append(report.Indexes, c.Name+"."+name)
		}
	}

	b.log.Debug("bootstrap report",
		slog.Any("created", report.CollectionsCreated),
		slog.Any("existing", report.CollectionsExisting),
		slog.Any("indexes", report.Indexes),
	)
	b.log.Info("Markets Data database initialized successfully!", slog.String("database", b.layout.Database))

	return report, nil
}
