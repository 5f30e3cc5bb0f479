package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"worklane/internal/domain"
)

// MockTaskSnapshotRepo is a mock implementation of port.TaskSnapshotRepository.
type MockTaskSnapshotRepo struct {
	mock.Mock
}

func (m *MockTaskSnapshotRepo) Create(ctx context.Context, snapshot *domain.TaskSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockTaskSnapshotRepo) Latest(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskSnapshot), args.Error(1)
}

func (m *MockTaskSnapshotRepo) LatestBySource(ctx context.Context, proposalID uuid.UUID, source domain.SnapshotSource) (*domain.TaskSnapshot, error) {
	args := m.Called(ctx, proposalID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskSnapshot), args.Error(1)
}

func (m *MockTaskSnapshotRepo) ListByProposal(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaskSnapshot), args.Error(1)
}
