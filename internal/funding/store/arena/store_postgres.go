package arena

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"givepool/internal/funding/models"
	id "givepool/pkg/domain"
	"givepool/pkg/platform/sentinel"
)

// Postgres persists project instances in PostgreSQL via database/sql + lib/pq.
//
// The reentrancy guard is the in_call column, claimed with a conditional
// UPDATE before the body runs and cleared on every exit path. Claiming a row
// instead of holding FOR UPDATE for the whole call keeps a reentrant callback
// from deadlocking against its own outer call: the inner attempt sees
// in_call=true and is rejected immediately.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the store expects. Integration tests and deploy tooling
// apply it; the store itself never migrates.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
	id            BIGINT PRIMARY KEY,
	admin_id      UUID        NOT NULL,
	goal          BIGINT      NOT NULL CHECK (goal > 0),
	raised        BIGINT      NOT NULL DEFAULT 0,
	status        TEXT        NOT NULL,
	metadata_ref  TEXT        NOT NULL,
	key_hash      TEXT        NOT NULL,
	donor_totals  JSONB       NOT NULL DEFAULT '{}',
	donor_order   TEXT[]      NOT NULL DEFAULT '{}',
	evidence      JSONB       NOT NULL DEFAULT '[]',
	in_call       BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE SEQUENCE IF NOT EXISTS project_ids START 1;
`

// EnsureSchema creates the projects table and id sequence if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure projects schema: %w", err)
	}
	return nil
}

// NextID allocates the next sequential project id from the shared sequence.
func (s *Postgres) NextID(ctx context.Context) (id.ProjectID, error) {
	var next uint64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('project_ids')`).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate project id: %w", err)
	}
	return id.ProjectID(next), nil
}

// Create registers a freshly initialized project instance under its id.
func (s *Postgres) Create(ctx context.Context, project *models.Project, keyHash string) error {
	totals, order, evidence, err := marshalLedger(project)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, admin_id, goal, raised, status, metadata_ref, key_hash,
			donor_totals, donor_order, evidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		int64(project.ID), project.Admin.String(), project.Goal, project.Raised,
		project.Status.String(), project.MetadataRef.String(), keyHash,
		totals, pq.Array(order), evidence, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project %d: %w", project.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create project %d: %w", project.ID, err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

// Find returns a snapshot of the aggregate.
func (s *Postgres) Find(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	return s.scanProject(s.db.QueryRowContext(ctx, selectProject+` WHERE id = $1`, int64(projectID)))
}

// KeyHash returns the bcrypt hash of the instance key issued at creation.
func (s *Postgres) KeyHash(ctx context.Context, projectID id.ProjectID) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT key_hash FROM projects WHERE id = $1`, int64(projectID)).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load key hash for project %d: %w", projectID, err)
	}
	return hash, nil
}

// Count returns the number of registered instances.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// Execute claims the instance guard, runs fn against a loaded copy, and
// writes the copy back only when fn returns nil. The guard is released on
// every exit path.
func (s *Postgres) Execute(ctx context.Context, projectID id.ProjectID, fn func(p *models.Project) error) (*models.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET in_call = TRUE WHERE id = $1 AND in_call = FALSE`, int64(projectID))
	if err != nil {
		return nil, fmt.Errorf("claim project %d: %w", projectID, err)
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim project %d: %w", projectID, err)
	}
	if claimed == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, int64(projectID)).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check project %d: %w", projectID, err)
		}
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrBusy
	}
	defer func() {
		// Release regardless of outcome. A background context keeps the
		// release from being skipped when the caller's context is done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = s.db.ExecContext(releaseCtx, `UPDATE projects SET in_call = FALSE WHERE id = $1`, int64(projectID))
	}()

	working, err := s.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	if err := s.save(ctx, working); err != nil {
		return nil, err
	}
	return working, nil
}

func (s *Postgres) save(ctx context.Context, project *models.Project) error {
	totals, order, evidence, err := marshalLedger(project)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET raised = $2, status = $3, donor_totals = $4,
			donor_order = $5, evidence = $6, updated_at = $7
		WHERE id = $1`,
		int64(project.ID), project.Raised, project.Status.String(),
		totals, pq.Array(order), evidence, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save project %d: %w", project.ID, err)
	}
	return nil
}

const selectProject = `
	SELECT id, admin_id, goal, raised, status, metadata_ref,
		donor_totals, donor_order, evidence, created_at, updated_at
	FROM projects`

func (s *Postgres) scanProject(row *sql.Row) (*models.Project, error) {
	var (
		pid      int64
		adminStr string
		p        models.Project
		status   string
		meta     string
		totals   []byte
		order    []string
		evidence []byte
	)
	err := row.Scan(&pid, &adminStr, &p.Goal, &p.Raised, &status, &meta,
		&totals, pq.Array(&order), &evidence, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.ID = id.ProjectID(pid)
	admin, err := id.ParseAccountID(adminStr)
	if err != nil {
		return nil, fmt.Errorf("scan project %d admin: %w", pid, err)
	}
	p.Admin = admin
	p.Status = models.ProjectStatus(status)
	p.MetadataRef = id.ContentHash(meta)
	if err := json.Unmarshal(totals, &p.DonorTotals); err != nil {
		return nil, fmt.Errorf("scan project %d donor totals: %w", pid, err)
	}
	p.DonorOrder = make([]id.AccountID, 0, len(order))
	for _, raw := range order {
		donor, err := id.ParseAccountID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan project %d donor order: %w", pid, err)
		}
		p.DonorOrder = append(p.DonorOrder, donor)
	}
	if err := json.Unmarshal(evidence, &p.Evidence); err != nil {
		return nil, fmt.Errorf("scan project %d evidence: %w", pid, err)
	}
	models.Restore(&p)
	return &p, nil
}

func marshalLedger(project *models.Project) (totals []byte, order []string, evidence []byte, err error) {
	totals, err = json.Marshal(project.DonorTotals)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal donor totals: %w", err)
	}
	order = make([]string, 0, len(project.DonorOrder))
	for _, donor := range project.DonorOrder {
		order = append(order, donor.String())
	}
	evidence, err = json.Marshal(project.Evidence)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal evidence: %w", err)
	}
	if project.Evidence == nil {
		evidence = []byte(`[]`)
	}
	return totals, order, evidence, nil
}
