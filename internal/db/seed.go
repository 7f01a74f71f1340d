package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	firstNames = []string{"Budi", "Siti", "Agus", "Dewi", "Rizky", "Ayu", "Andi", "Putri", "Joko", "Rina", "Fajar", "Lestari"}
	lastNames  = []string{"Santoso", "Rahma", "Wijaya", "Pratama", "Saputra", "Hidayat", "Kusuma", "Nugroho", "Sari", "Halim"}
	owners     = []string{"Tim A", "Tim B", "Tim C"}
	priorities = []string{"low", "medium", "medium", "high"}
	leadStates = []string{"new", "contacted", "qualified", "converted", "lost"}
	sources    = []string{"Instagram", "Facebook Ads", "Google Ads", "Referral", "WhatsApp", "Website"}
	issues     = []string{"Pembayaran gagal", "Pesanan terlambat", "Produk rusak", "Permintaan refund", "Komplain layanan"}
	escStates  = []string{"open", "open", "in_progress", "resolved"}
	campaigns  = []struct {
		name, channel, status string
	}{
		{"Promo Ramadhan", "Instagram", "active"},
		{"Flash Sale 11.11", "Facebook Ads", "completed"},
		{"Referral Teman", "WhatsApp", "active"},
		{"Brand Awareness Q3", "Google Ads", "paused"},
		{"Harbolnas", "Website", "completed"},
		{"Back to School", "Instagram", "draft"},
	}
)

// SeedOptions controls demo data generation.
type SeedOptions struct {
	Customers int
	Now       time.Time
	// Seed makes generation repeatable.
	Seed uint64
}

// SeedCounts reports how many rows Seed inserted per table.
type SeedCounts struct {
	Customers   int
	Leads       int
	Escalations int
	Campaigns   int
}

// Seed inserts demo CRM data in one transaction.
func Seed(ctx context.Context, db *sql.DB, dialect Dialect, opts SeedOptions) (SeedCounts, error) {
	if opts.Customers <= 0 {
		opts.Customers = 50
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	now := opts.Now.UTC()
	ago := func(maxHours int) string {
		return now.Add(-time.Duration(rng.IntN(maxHours*60)) * time.Minute).Format(time.RFC3339)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return SeedCounts{}, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var counts SeedCounts
	insert := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, Rebind(dialect, query), args...)
		return err
	}

	type person struct{ name, phone string }
	people := make([]person, 0, opts.Customers)
	for i := 0; i < opts.Customers; i++ {
		p := person{
			name:  firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
			phone: fmt.Sprintf("62812%08d", rng.IntN(100000000)),
		}
		people = append(people, p)
		err := insert(`INSERT INTO customers (id, name, phone, email, status, priority, owner, last_contact, response_time, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), p.name, p.phone, fmt.Sprintf("customer%d@example.com", i+1),
			[]string{"active", "active", "inactive"}[rng.IntN(3)],
			priorities[rng.IntN(len(priorities))],
			owners[rng.IntN(len(owners))],
			ago(72), float64(1+rng.IntN(60)), ago(21*24))
		if err != nil {
			return SeedCounts{}, fmt.Errorf("failed to insert customer: %w", err)
		}
		counts.Customers++
	}

	for i := 0; i < opts.Customers; i++ {
		p := people[rng.IntN(len(people))]
		err := insert(`INSERT INTO leads (id, name, phone, email, source, status, lead_score, follow_up, owner, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), p.name, p.phone, nil,
			sources[rng.IntN(len(sources))],
			leadStates[rng.IntN(len(leadStates))],
			float64(rng.IntN(101)), ago(7*24),
			owners[rng.IntN(len(owners))], ago(21*24))
		if err != nil {
			return SeedCounts{}, fmt.Errorf("failed to insert lead: %w", err)
		}
		counts.Leads++
	}

	for i := 0; i < opts.Customers/3+1; i++ {
		p := people[rng.IntN(len(people))]
		err := insert(`INSERT INTO escalations (id, customer_name, customer_phone, issue, priority, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), p.name, p.phone,
			issues[rng.IntN(len(issues))],
			priorities[rng.IntN(len(priorities))],
			escStates[rng.IntN(len(escStates))],
			ago(21*24))
		if err != nil {
			return SeedCounts{}, fmt.Errorf("failed to insert escalation: %w", err)
		}
		counts.Escalations++
	}

	for _, c := range campaigns {
		spend := float64(500+rng.IntN(9500)) * 1000
		leads := 20 + rng.IntN(400)
		err := insert(`INSERT INTO campaigns (id, campaign_name, channel, status, spend, leads_generated, conversion_rate, roi, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), c.name, c.channel, c.status,
			spend, leads, float64(rng.IntN(300))/1000, float64(rng.IntN(400)),
			ago(90*24))
		if err != nil {
			return SeedCounts{}, fmt.Errorf("failed to insert campaign: %w", err)
		}
		counts.Campaigns++
	}

	if err := tx.Commit(); err != nil {
		return SeedCounts{}, fmt.Errorf("failed to commit seed: %w", err)
	}
	return counts, nil
}
