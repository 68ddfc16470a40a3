package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akshat0107/market-sentiment-tracker/backend/internal/bootstrap"
	"github.com/akshat0107/market-sentiment-tracker/backend/internal/schema"
)

type stubStore struct {
	collections map[string]bool
	indexes     map[string]map[string]bool
	calls       []string

	failCollection string
	failIndex      string
	err            error
}

func newStubStore() *stubStore {
	return &stubStore{
		collections: map[string]bool{},
		indexes:     map[string]map[string]bool{},
	}
}

func (s *stubStore) EnsureCollection(_ context.Context, name string) (bool, error) {
	s.calls = append(s.calls, "collection:"+name)
	if name == s.failCollection {
		return false, s.err
	}
	if s.collections[name] {
		return false, nil
	}
	s.collections[name] = true
	return true, nil
}

func (s *stubStore) EnsureIndex(_ context.Context, collection string, idx schema.Index) (string, error) {
	s.calls = append(s.calls, "index:"+collection+"."+idx.Name())
	if idx.Name() == s.failIndex {
		return "", s.err
	}
	if s.indexes[collection] == nil {
		s.indexes[collection] = map[string]bool{}
	}
	s.indexes[collection][idx.Name()] = true
	return idx.Name(), nil
}

func TestRunCreatesCollectionsThenIndexes(t *testing.T) {
	store := newStubStore()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	report, err := bootstrap.New(store, schema.MarketData(), log).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"collection:sample_data",
		"collection:alerts",
		"collection:news",
		"index:sample_data.ticker_1_timestamp_-1",
		"index:sample_data.timestamp_-1",
		"index:alerts.timestamp_-1",
		"index:alerts.acknowledged_1",
	}, store.calls)

	require.Equal(t, []string{"sample_data", "alerts", "news"}, report.CollectionsCreated)
	require.Empty(t, report.CollectionsExisting)
	require.Len(t, report.Indexes, 4)
	require.Empty(t, store.indexes["news"])

	require.Contains(t, buf.String(), "Initializing Market Data Database")
	require.Contains(t, buf.String(), "Markets Data database initialized successfully!")
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	store := newStubStore()
	b := bootstrap.New(store, schema.MarketData(), nil)

	_, err := b.Run(context.Background())
	require.NoError(t, err)

	report, err := b.Run(context.Background())
	require.NoError(t, err)

	require.Empty(t, report.CollectionsCreated)
	require.Equal(t, []string{"sample_data", "alerts", "news"}, report.CollectionsExisting)
	require.Len(t, store.collections, 3)
	require.Len(t, store.indexes["sample_data"], 2)
	require.Len(t, store.indexes["alerts"], 2)
}

func TestRunStopsAtFirstCollectionFailure(t *testing.T) {
	denied := errors.New("not authorized on market_data")
	store := newStubStore()
	store.failCollection = "alerts"
	store.err = denied

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := bootstrap.New(store, schema.MarketData(), log).Run(context.Background())
	require.ErrorIs(t, err, denied)
	require.Contains(t, err.Error(), "collection alerts")

	require.Equal(t, []string{"collection:sample_data", "collection:alerts"}, store.calls)
	require.NotContains(t, buf.String(), "initialized successfully")
}

func TestRunSurfacesIndexFailure(t *testing.T) {
	conflict := errors.New("index options conflict")
	store := newStubStore()
	store.failIndex = "acknowledged_1"
	store.err = conflict

	report, err := bootstrap.New(store, schema.MarketData(), nil).Run(context.Background())
	require.ErrorIs(t, err, conflict)
	require.Len(t, report.CollectionsCreated, 3)
	require.Len(t, report.Indexes, 3)
}

func TestRunRejectsInvalidLayout(t *testing.T) {
	store := newStubStore()
	layout := schema.Layout{Database: "market_data", Collections: []schema.Collection{{Name: ""}}}

	_, err := bootstrap.New(store, layout, nil).Run(context.Background())
	require.Error(t, err)
	require.Empty(t, store.calls)
}
