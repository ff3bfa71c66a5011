package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
)

// Postgres is the pgx-backed global ledger.
//
// donation_count and total_raised live in a single-row counters table so the
// upsert of a donor row and the counter bump commit atomically.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema is the DDL the store expects.
const Schema = `
CREATE TABLE IF NOT EXISTS global_donors (
	donor_id  UUID PRIMARY KEY,
	total     BIGINT NOT NULL DEFAULT 0,
	seq       BIGSERIAL
);
CREATE TABLE IF NOT EXISTS global_counters (
	singleton      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	donation_count BIGINT NOT NULL DEFAULT 0,
	total_raised   BIGINT NOT NULL DEFAULT 0
);
INSERT INTO global_counters (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING;
`

// EnsureSchema creates the ledger tables if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Record accumulates one accepted donation into the global ledger.
// The donor upsert and counter bump run in one transaction.
func (s *Postgres) Record(ctx context.Context, donor id.AccountID, amount int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("record donation: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO global_donors (donor_id, total) VALUES ($1, $2)
		ON CONFLICT (donor_id) DO UPDATE SET total = global_donors.total + EXCLUDED.total`,
		donor.String(), amount,
	); err != nil {
		return fmt.Errorf("record donation: upsert donor: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE global_counters SET donation_count = donation_count + 1, total_raised = total_raised + $1`,
		amount,
	); err != nil {
		return fmt.Errorf("record donation: bump counters: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("record donation: commit: %w", err)
	}
	return nil
}

// DonorTotal returns a donor's cumulative cross-project amount (0 if unknown).
func (s *Postgres) DonorTotal(ctx context.Context, donor id.AccountID) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT total FROM global_donors WHERE donor_id = $1`, donor.String()).Scan(&total)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load donor total: %w", err)
	}
	return total, nil
}

// Snapshot returns the distinct-donor list in first-global-donation order
// (the seq column) together with every donor's total.
func (s *Postgres) Snapshot(ctx context.Context) ([]id.AccountID, map[id.AccountID]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT donor_id, total FROM global_donors ORDER BY seq`)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot ledger: %w", err)
	}
	defer rows.Close()

	var order []id.AccountID
	totals := make(map[id.AccountID]int64)
	for rows.Next() {
		var donorStr string
		var total int64
		if err := rows.Scan(&donorStr, &total); err != nil {
			return nil, nil, fmt.Errorf("snapshot ledger: scan: %w", err)
		}
		donor, err := id.ParseAccountID(donorStr)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot ledger: donor id: %w", err)
		}
		order = append(order, donor)
		totals[donor] = total
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("snapshot ledger: %w", err)
	}
	return order, totals, nil
}

// Stats returns the platform-wide counters.
func (s *Postgres) Stats(ctx context.Context) (models.GlobalStats, error) {
	var stats models.GlobalStats
	err := s.pool.QueryRow(ctx, `
		SELECT c.donation_count, c.total_raised, (SELECT count(*) FROM global_donors)
		FROM global_counters c`).
		Scan(&stats.DonationCount, &stats.TotalRaised, &stats.DonorCount)
	if err != nil {
		return models.GlobalStats{}, fmt.Errorf("load global stats: %w", err)
	}
	return stats, nil
}
