package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"worklane/internal/domain"
	"worklane/internal/port"
)

type snapshotRepo struct {
	db *sqlx.DB
}

// NewTaskSnapshotRepo creates a new PostgreSQL-backed TaskSnapshotRepository.
func NewTaskSnapshotRepo(db *sqlx.DB) port.TaskSnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Create(ctx context.Context, snapshot *domain.TaskSnapshot) error {
	snapshot.CreatedAt = time.Now().UTC()

	// Version assignment and insert happen in one statement so concurrent
	// writers for the same proposal cannot pick the same version.
	query := `INSERT INTO task_snapshots
		(id, proposal_id, version, source, tasks, merge_stats, created_by, created_at)
		VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM task_snapshots WHERE proposal_id = $2),
			$3, $4, $5, $6, $7
		)
		RETURNING version`

	err := r.db.GetContext(ctx, &snapshot.Version, query,
		snapshot.ID, snapshot.ProposalID, snapshot.Source,
		snapshot.Tasks, snapshot.MergeStats, snapshot.CreatedBy, snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("snapshotRepo.Create: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error) {
	var snapshot domain.TaskSnapshot
	err := r.db.GetContext(ctx, &snapshot,
		`SELECT * FROM task_snapshots WHERE proposal_id = $1
		 ORDER BY version DESC LIMIT 1`, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("snapshotRepo.Latest: %w", err)
	}
	return &snapshot, nil
}

func (r *snapshotRepo) LatestBySource(ctx context.Context, proposalID uuid.UUID, source domain.SnapshotSource) (*domain.TaskSnapshot, error) {
	var snapshot domain.TaskSnapshot
	err := r.db.GetContext(ctx, &snapshot,
		`SELECT * FROM task_snapshots WHERE proposal_id = $1 AND source = $2
		 ORDER BY version DESC LIMIT 1`, proposalID, source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("snapshotRepo.LatestBySource: %w", err)
	}
	return &snapshot, nil
}

func (r *snapshotRepo) ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error) {
	var snapshots []domain.TaskSnapshot
	err := r.db.SelectContext(ctx, &snapshots,
		`SELECT * FROM task_snapshots WHERE proposal_id = $1 ORDER BY version ASC`,
		proposalID)
	if err != nil {
		return nil, fmt.Errorf("snapshotRepo.ListByProposal: %w", err)
	}
	return snapshots, nil
}
