// Package source fetches raw CRM payloads, from the n8n webhooks or straight
// from the database, and adapts them into typed loaders for the query
// stores.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"crmdash/internal/config"
	"crmdash/internal/db"
	"crmdash/internal/model"
	"crmdash/internal/query"
)

// ErrUnknownResource is returned for a resource the source cannot serve.
var ErrUnknownResource = errors.New("unknown resource")

// Source fetches the raw payload for one resource. Payloads are decoded
// JSON values (or values shaped like them) in whatever envelope the
// backend uses.
type Source interface {
	Fetch(ctx context.Context, res model.Resource) (any, error)
	Close() error
}

// Checker is a Source that can check its backend is reachable without
// loading a table.
type Checker interface {
	Health(ctx context.Context) error
}

// Open builds the source selected by cfg.Source.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Source, error) {
	if cfg.Source == config.SourceAPI {
		return NewClient(cfg.API, logger), nil
	}
	dialect, dsn, err := Target(cfg)
	if err != nil {
		return nil, fmt.Errorf("unsupported source %q", cfg.Source)
	}
	database, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	return NewSQL(database, dialect), nil
}

// Target returns the dialect and DSN of a database source, creating the
// SQLite directory when needed.
func Target(cfg *config.Config) (db.Dialect, string, error) {
	dialect, err := db.ParseDialect(cfg.Source)
	if err != nil {
		return "", "", fmt.Errorf("source %q has no database; use --source sqlite or postgres", cfg.Source)
	}
	if dialect == db.Postgres {
		return dialect, cfg.DB.URL, nil
	}
	if cfg.DB.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0700); err != nil {
			return "", "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return dialect, cfg.DB.Path, nil
}

// Customers adapts src into a loader of normalized customers.
func Customers(src Source) query.Loader[[]model.Customer] {
	return typed(src, model.ResourceCustomers, model.Customers)
}

// Leads adapts src into a loader of normalized leads.
func Leads(src Source) query.Loader[[]model.Lead] {
	return typed(src, model.ResourceLeads, model.Leads)
}

// Escalations adapts src into a loader of normalized escalations.
func Escalations(src Source) query.Loader[[]model.Escalation] {
	return typed(src, model.ResourceEscalations, model.Escalations)
}

// Campaigns adapts src into a loader of normalized campaigns.
func Campaigns(src Source) query.Loader[[]model.Campaign] {
	return typed(src, model.ResourceCampaigns, model.Campaigns)
}

// Stats adapts src into a loader of the quick stats.
func Stats(src Source) query.Loader[model.QuickStats] {
	return typed(src, model.ResourceStats, model.NewQuickStats)
}

func typed[T any](src Source, res model.Resource, convert func(any) T) query.Loader[T] {
	return func(ctx context.Context) (T, error) {
		var zero T
		raw, err := src.Fetch(ctx, res)
		if err != nil {
			return zero, err
		}
		return convert(raw), nil
	}
}
