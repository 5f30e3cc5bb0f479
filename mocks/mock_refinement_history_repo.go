package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRefinementHistoryRepo is a mock implementation of port.RefinementHistoryRepository.
type MockRefinementHistoryRepo struct {
	mock.Mock
}

func (m *MockRefinementHistoryRepo) Get(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockRefinementHistoryRepo) Save(ctx context.Context, proposalID uuid.UUID, history json.RawMessage) error {
	args := m.Called(ctx, proposalID, history)
	return args.Error(0)
}
