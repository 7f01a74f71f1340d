package source

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/config"
	"crmdash/internal/db"
	"crmdash/internal/model"
	"crmdash/internal/normalize"
)

// fakeSource serves canned payloads and records which resources were hit.
type fakeSource struct {
	mu       sync.Mutex
	payloads map[model.Resource]any
	errs     map[model.Resource]error
	calls    []model.Resource
}

func (f *fakeSource) Fetch(ctx context.Context, res model.Resource) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, res)
	f.mu.Unlock()
	if err := f.errs[res]; err != nil {
		return nil, err
	}
	return f.payloads[res], nil
}

func (f *fakeSource) Close() error { return nil }

func TestTypedLoaders(t *testing.T) {
	src := &fakeSource{payloads: map[model.Resource]any{
		model.ResourceCustomers:   []any{map[string]any{"name": "Budi"}},
		model.ResourceLeads:       map[string]any{"items": []any{map[string]any{"name": "Sari"}}},
		model.ResourceEscalations: map[string]any{"data": []any{}},
		model.ResourceStats:       map[string]any{"total_customers": 1.0},
	}}
	ctx := context.Background()

	customers, err := Customers(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	leads, err := Leads(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	escalations, err := Escalations(src)(ctx)
	require.NoError(t, err)
	assert.Empty(t, escalations)

	stats, err := Stats(src)(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.TotalCustomers)
}

func TestTypedLoaderFails(t *testing.T) {
	boom := errors.New("n8n down")
	src := &fakeSource{errs: map[model.Resource]error{model.ResourceStats: boom}}

	_, err := Stats(src)(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSQLSource(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, db.SQLite, ":memory:")
	require.NoError(t, err)

	src := NewSQL(database, db.SQLite)
	defer src.Close()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	_, err = db.Seed(ctx, src.DB(), src.Dialect(), db.SeedOptions{Customers: 9, Now: now, Seed: 1})
	require.NoError(t, err)

	customers, err := Customers(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 9)
	leads, err := Leads(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 9)
	escalations, err := Escalations(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, escalations, 4)
	campaigns, err := Campaigns(src)(ctx)
	require.NoError(t, err)
	assert.Len(t, campaigns, 6)
	stats, err := Stats(src)(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9.0, stats.TotalCustomers)

	_, err = src.Fetch(ctx, model.Resource("chat_history"))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestOpenSelectsSource(t *testing.T) {
	cfg := &config.Config{Source: config.SourceAPI, API: apiConfig("http://localhost")}
	src, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Client{}, src)

	cfg = &config.Config{Source: config.SourceSQLite, DB: config.DBConfig{Path: ":memory:"}}
	src, err = Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, src)
	require.NoError(t, src.Close())

	_, err = Open(context.Background(), &config.Config{Source: "ftp"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestTarget(t *testing.T) {
	_, _, err := Target(&config.Config{Source: config.SourceAPI})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no database")

	path := filepath.Join(t.TempDir(), "nested", "crm.db")
	dialect, dsn, err := Target(&config.Config{Source: config.SourceSQLite, DB: config.DBConfig{Path: path}})
	require.NoError(t, err)
	assert.Equal(t, db.SQLite, dialect)
	assert.Equal(t, path, dsn)
	assert.DirExists(t, filepath.Dir(path))

	url := "postgres://crm@localhost/crm"
	dialect, dsn, err = Target(&config.Config{Source: config.SourcePostgres, DB: config.DBConfig{URL: url}})
	require.NoError(t, err)
	assert.Equal(t, db.Postgres, dialect)
	assert.Equal(t, url, dsn)
}

func TestSQLHealth(t *testing.T) {
	database, err := db.Open(context.Background(), db.SQLite, ":memory:")
	require.NoError(t, err)
	src := NewSQL(database, db.SQLite)

	var checker Checker = src
	assert.NoError(t, checker.Health(context.Background()))

	require.NoError(t, src.Close())
	assert.Error(t, checker.Health(context.Background()))
}

func TestTypedLoaderNormalizes(t *testing.T) {
	src := &fakeSource{payloads: map[model.Resource]any{
		model.ResourceCampaigns: []normalize.Record{{"campaign_name": "Promo", "cvr": 0.2}},
	}}
	campaigns, err := Campaigns(src)(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	require.NotNil(t, campaigns[0].Conversion)
	assert.InDelta(t, 20.0, *campaigns[0].Conversion, 1e-9)
}
