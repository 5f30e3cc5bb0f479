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

type proposalRepo struct {
	db *sqlx.DB
}

// NewProposalRepo creates a new PostgreSQL-backed ProposalRepository.
func NewProposalRepo(db *sqlx.DB) port.ProposalRepository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) Create(ctx context.Context, proposal *domain.Proposal) error {
	now := time.Now().UTC()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	query := `INSERT INTO proposals (
		id, title, client_name, file_id, status,
		extract_attempts, extraction_error, extractor_model,
		notify_email, last_extracted_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12
	)`

	_, err := r.db.ExecContext(ctx, query,
		proposal.ID, proposal.Title, proposal.ClientName, proposal.FileID, proposal.Status,
		proposal.ExtractAttempts, proposal.ExtractionError, proposal.ExtractorModel,
		proposal.NotifyEmail, proposal.LastExtractedAt, proposal.CreatedAt, proposal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("proposalRepo.Create: %w", err)
	}
	return nil
}

func (r *proposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	var proposal domain.Proposal
	err := r.db.GetContext(ctx, &proposal,
		"SELECT * FROM proposals WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposalRepo.GetByID: %w", err)
	}
	return &proposal, nil
}

func (r *proposalRepo) List(ctx context.Context, offset, limit int) ([]domain.Proposal, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM proposals")
	if err != nil {
		return nil, 0, fmt.Errorf("proposalRepo.List count: %w", err)
	}

	var proposals []domain.Proposal
	err = r.db.SelectContext(ctx, &proposals,
		`SELECT * FROM proposals ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("proposalRepo.List: %w", err)
	}
	return proposals, total, nil
}

func (r *proposalRepo) Update(ctx context.Context, proposal *domain.Proposal) error {
	proposal.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET
			title = $1, client_name = $2, status = $3,
			extract_attempts = $4, extraction_error = $5, extractor_model = $6,
			notify_email = $7, last_extracted_at = $8, updated_at = $9
		 WHERE id = $10`,
		proposal.Title, proposal.ClientName, proposal.Status,
		proposal.ExtractAttempts, proposal.ExtractionError, proposal.ExtractorModel,
		proposal.NotifyEmail, proposal.LastExtractedAt, proposal.UpdatedAt,
		proposal.ID)
	if err != nil {
		return fmt.Errorf("proposalRepo.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposalRepo.Update rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (r *proposalRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Proposal, error) {
	var proposals []domain.Proposal
	err := r.db.SelectContext(ctx, &proposals,
		`UPDATE proposals SET status = $1, updated_at = $2
		 WHERE id IN (
			SELECT id FROM proposals WHERE status = $3
			ORDER BY created_at ASC LIMIT $4
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.ExtractionStatusProcessing, time.Now().UTC(), domain.ExtractionStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("proposalRepo.ClaimQueued: %w", err)
	}
	return proposals, nil
}

func (r *proposalRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET status = $1, updated_at = $2 WHERE id = $3`,
		domain.ExtractionStatusQueued, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("proposalRepo.Requeue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposalRepo.Requeue rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (r *proposalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM proposals WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("proposalRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposalRepo.Delete rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}
