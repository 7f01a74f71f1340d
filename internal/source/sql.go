package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crmdash/internal/db"
	"crmdash/internal/model"
)

// SQL serves resources straight from the CRM tables.
type SQL struct {
	db      *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

// NewSQL wraps an open, migrated database. The source owns it from here.
func NewSQL(database *sql.DB, dialect db.Dialect) *SQL {
	return &SQL{db: database, dialect: dialect, now: time.Now}
}

// DB exposes the underlying handle for seeding.
func (s *SQL) DB() *sql.DB { return s.db }

// Dialect reports the SQL dialect.
func (s *SQL) Dialect() db.Dialect { return s.dialect }

// Fetch implements Source.
func (s *SQL) Fetch(ctx context.Context, res model.Resource) (any, error) {
	switch res {
	case model.ResourceCustomers:
		return s.list(db.ListCustomers(ctx, s.db))
	case model.ResourceLeads:
		return s.list(db.ListLeads(ctx, s.db))
	case model.ResourceEscalations:
		return s.list(db.ListEscalations(ctx, s.db))
	case model.ResourceCampaigns:
		return s.list(db.ListCampaigns(ctx, s.db))
	case model.ResourceStats:
		stats, err := db.QuickStats(ctx, s.db, s.dialect, s.now())
		if err != nil {
			return nil, err
		}
		return stats, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownResource, res)
}

func (s *SQL) list(recs any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Close implements Source.
func (s *SQL) Close() error { return s.db.Close() }

// Health pings the database.
func (s *SQL) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
