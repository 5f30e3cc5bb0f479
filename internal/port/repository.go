package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"worklane/internal/domain"
)

// ProposalRepository defines the contract for proposal persistence.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *domain.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)
	List(ctx context.Context, offset, limit int) ([]domain.Proposal, int, error)
	Update(ctx context.Context, proposal *domain.Proposal) error
	// ClaimQueued atomically flips up to limit queued proposals to processing
	// and returns them, so concurrent workers never claim the same proposal.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Proposal, error)
	// Requeue returns a failed-in-flight proposal to the queue for another attempt.
	Requeue(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileMetaRepository defines the contract for file metadata persistence.
type FileMetaRepository interface {
	Create(ctx context.Context, meta *domain.FileMeta) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.FileMeta, error)
	List(ctx context.Context, offset, limit int) ([]domain.FileMeta, int, error)
	UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus) error
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// TaskSnapshotRepository defines the contract for task snapshot persistence.
type TaskSnapshotRepository interface {
	// Create inserts the snapshot with the next version for its proposal and
	// fills in the assigned version.
	Create(ctx context.Context, snapshot *domain.TaskSnapshot) error
	// Latest returns the most recent snapshot for the proposal regardless of source.
	Latest(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error)
	// LatestBySource returns the most recent snapshot with the given source.
	LatestBySource(ctx context.Context, proposalID uuid.UUID, source domain.SnapshotSource) (*domain.TaskSnapshot, error)
	ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error)
}

// RefinementHistoryRepository persists the per-proposal refinement history as
// an opaque JSON document keyed by proposal.
type RefinementHistoryRepository interface {
	Get(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error)
	Save(ctx context.Context, proposalID uuid.UUID, history json.RawMessage) error
}
