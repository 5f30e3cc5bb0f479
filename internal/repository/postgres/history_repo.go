package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"worklane/internal/port"
)

type historyRepo struct {
	db *sqlx.DB
}

// NewRefinementHistoryRepo creates a new PostgreSQL-backed RefinementHistoryRepository.
func NewRefinementHistoryRepo(db *sqlx.DB) port.RefinementHistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Get(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error) {
	var history json.RawMessage
	err := r.db.GetContext(ctx, &history,
		"SELECT history FROM refinement_history WHERE proposal_id = $1", proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("historyRepo.Get: %w", err)
	}
	return history, nil
}

func (r *historyRepo) Save(ctx context.Context, proposalID uuid.UUID, history json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refinement_history (proposal_id, history, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (proposal_id) DO UPDATE SET history = $2, updated_at = $3`,
		proposalID, history, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("historyRepo.Save: %w", err)
	}
	return nil
}
