package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/model"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMigrates(t *testing.T) {
	db := openMemory(t)

	v, err := Version(db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// Migrating again is a no-op.
	require.NoError(t, Migrate(db, SQLite))

	recs, err := ListCustomers(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NotNil(t, recs)
}

func TestSeedAndList(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	counts, err := Seed(ctx, db, SQLite, SeedOptions{Customers: 12, Now: now, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, SeedCounts{Customers: 12, Leads: 12, Escalations: 5, Campaigns: 6}, counts)

	customers, err := ListCustomers(ctx, db)
	require.NoError(t, err)
	require.Len(t, customers, 12)

	parsed := model.Customers(customers)
	for _, c := range parsed {
		assert.NotEmpty(t, c.ID)
		assert.NotEqual(t, "Unknown Customer", c.Name)
		assert.Contains(t, []string{"low", "medium", "high"}, c.Priority)
		require.NotNil(t, c.ResponseTime)
		require.NotNil(t, c.LastContact)
	}

	campaigns, err := ListCampaigns(ctx, db)
	require.NoError(t, err)
	for _, c := range model.Campaigns(campaigns) {
		require.NotNil(t, c.Spend)
		require.NotNil(t, c.Leads)
	}

	leads, err := ListLeads(ctx, db)
	require.NoError(t, err)
	assert.Len(t, leads, 12)

	escalations, err := ListEscalations(ctx, db)
	require.NoError(t, err)
	assert.Len(t, escalations, 5)

	stats, err := QuickStats(ctx, db, SQLite, now)
	require.NoError(t, err)
	qs := model.NewQuickStats(stats)
	assert.Equal(t, 12.0, qs.TotalCustomers)
	assert.Equal(t, 12.0, qs.TotalLeads)
	assert.LessOrEqual(t, qs.TotalEscalations, 5.0)
	assert.GreaterOrEqual(t, qs.ResponseRate, 0.0)
	assert.LessOrEqual(t, qs.ResponseRate, 100.0)
}

func TestQuickStatsDeltas(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	add := func(id string, age time.Duration) {
		_, err := db.ExecContext(ctx, `INSERT INTO customers (id, name, created_at) VALUES (?, ?, ?)`,
			id, id, now.Add(-age).Format(time.RFC3339))
		require.NoError(t, err)
	}
	add("a", 24*time.Hour)
	add("b", 48*time.Hour)
	add("c", 3*24*time.Hour)
	add("d", 10*24*time.Hour)
	add("e", 11*24*time.Hour)

	stats, err := QuickStats(ctx, db, SQLite, now)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stats["total_customers"])
	assert.InDelta(t, 50.0, stats["customers_delta"], 1e-9)
	assert.NotContains(t, stats, "leads_delta", "no leads in the previous window")
	assert.Equal(t, 0.0, stats["response_rate"])
}

func TestQueryRecordsShapesValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, phone").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "phone", "email", "status", "priority", "owner", "last_contact", "response_time", "created_at"}).
			AddRow("c1", []byte("Budi Santoso"), "62811", nil, "active", "high", "Tim A", ts, int64(4), "2024-04-01T00:00:00Z"),
	)

	recs, err := ListCustomers(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Budi Santoso", recs[0]["name"])
	assert.Equal(t, 4.0, recs[0]["response_time"])
	assert.Equal(t, "2024-05-01T08:00:00Z", recs[0]["last_contact"])
	assert.Nil(t, recs[0]["email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListErrorsWrap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM leads").WillReturnError(boom)

	_, err = ListLeads(context.Background(), db)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to list leads")
}

func TestQuickStatsPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`created_at >= \$1\) AS customers_current`).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}).
			AddRow(10, 4, 2, 1, 3, 0, 2, 1, 1, 1))

	stats, err := QuickStats(context.Background(), db, Postgres, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10.0, stats["total_customers"])
	assert.Equal(t, 25.0, stats["response_rate"])
	assert.NotContains(t, stats, "customers_delta")
	assert.Equal(t, 100.0, stats["leads_delta"])
	assert.Equal(t, 0.0, stats["escalations_delta"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", Rebind(Postgres, q))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}
