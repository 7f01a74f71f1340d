package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crmdash/internal/normalize"
)

// Column names mirror the webhook payload fields so rows take the same
// normalization path as API responses.

const listCustomersQuery = `
	SELECT id, name, phone, email, status, priority, owner, last_contact, response_time, created_at
	FROM customers
	ORDER BY last_contact DESC, name`

const listLeadsQuery = `
	SELECT id, name, phone, email, source, status, lead_score, follow_up, owner, created_at
	FROM leads
	ORDER BY created_at DESC, name`

const listEscalationsQuery = `
	SELECT id, customer_name, customer_phone, issue, priority, status, created_at
	FROM escalations
	ORDER BY created_at DESC`

const listCampaignsQuery = `
	SELECT id, campaign_name, channel, status, spend, leads_generated, conversion_rate, roi, created_at
	FROM campaigns
	ORDER BY created_at DESC, campaign_name`

const quickStatsQuery = `
	SELECT
		(SELECT COUNT(*) FROM customers) AS total_customers,
		(SELECT COUNT(*) FROM leads) AS total_leads,
		(SELECT COUNT(*) FROM escalations WHERE status = 'open') AS total_escalations,
		(SELECT COUNT(*) FROM leads WHERE status IN ('contacted', 'qualified', 'converted')) AS responded_leads,
		(SELECT COUNT(*) FROM customers WHERE created_at >= ?) AS customers_current,
		(SELECT COUNT(*) FROM customers WHERE created_at >= ? AND created_at < ?) AS customers_previous,
		(SELECT COUNT(*) FROM leads WHERE created_at >= ?) AS leads_current,
		(SELECT COUNT(*) FROM leads WHERE created_at >= ? AND created_at < ?) AS leads_previous,
		(SELECT COUNT(*) FROM escalations WHERE created_at >= ?) AS escalations_current,
		(SELECT COUNT(*) FROM escalations WHERE created_at >= ? AND created_at < ?) AS escalations_previous`

// ListCustomers returns every customer row as a raw record.
func ListCustomers(ctx context.Context, db *sql.DB) ([]normalize.Record, error) {
	recs, err := queryRecords(ctx, db, listCustomersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return recs, nil
}

// ListLeads returns every lead row as a raw record.
func ListLeads(ctx context.Context, db *sql.DB) ([]normalize.Record, error) {
	recs, err := queryRecords(ctx, db, listLeadsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return recs, nil
}

// ListEscalations returns every escalation row as a raw record.
func ListEscalations(ctx context.Context, db *sql.DB) ([]normalize.Record, error) {
	recs, err := queryRecords(ctx, db, listEscalationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations: %w", err)
	}
	return recs, nil
}

// ListCampaigns returns every campaign row as a raw record.
func ListCampaigns(ctx context.Context, db *sql.DB) ([]normalize.Record, error) {
	recs, err := queryRecords(ctx, db, listCampaignsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return recs, nil
}

// QuickStats computes the headline counters in the webhook's field names.
// Deltas compare the last seven days with the seven before, as a percentage;
// they are left out when the earlier window is empty.
func QuickStats(ctx context.Context, db *sql.DB, dialect Dialect, now time.Time) (normalize.Record, error) {
	week := now.UTC().Add(-7 * 24 * time.Hour).Format(time.RFC3339)
	prev := now.UTC().Add(-14 * 24 * time.Hour).Format(time.RFC3339)

	var (
		customers, leads, escalations, responded int64
		custCur, custPrev                        int64
		leadCur, leadPrev                        int64
		escCur, escPrev                          int64
	)
	err := db.QueryRowContext(ctx, Rebind(dialect, quickStatsQuery),
		week, prev, week,
		week, prev, week,
		week, prev, week,
	).Scan(&customers, &leads, &escalations, &responded,
		&custCur, &custPrev, &leadCur, &leadPrev, &escCur, &escPrev)
	if err != nil {
		return nil, fmt.Errorf("failed to compute quick stats: %w", err)
	}

	rec := normalize.Record{
		"total_customers":   float64(customers),
		"total_leads":       float64(leads),
		"total_escalations": float64(escalations),
		"response_rate":     0.0,
	}
	if leads > 0 {
		rec["response_rate"] = float64(responded) / float64(leads) * 100
	}
	setDelta(rec, "customers_delta", custCur, custPrev)
	setDelta(rec, "leads_delta", leadCur, leadPrev)
	setDelta(rec, "escalations_delta", escCur, escPrev)
	return rec, nil
}

func setDelta(rec normalize.Record, key string, current, previous int64) {
	if previous == 0 {
		return
	}
	rec[key] = float64(current-previous) / float64(previous) * 100
}

// queryRecords scans any result set into records keyed by column name,
// with values shaped like decoded JSON.
func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]normalize.Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]normalize.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(normalize.Record, len(cols))
		for i, col := range cols {
			rec[col] = jsonValue(values[i])
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
