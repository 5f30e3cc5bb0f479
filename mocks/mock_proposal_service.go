package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"worklane/internal/domain"
	"worklane/internal/service"
)

// MockProposalService is a mock implementation of service.ProposalService.
type MockProposalService struct {
	mock.Mock
}

func (m *MockProposalService) UploadFile(ctx context.Context, input *service.UploadFileInput) (*domain.FileMeta, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileMeta), args.Error(1)
}

func (m *MockProposalService) CreateAndQueue(ctx context.Context, input *service.CreateProposalInput) (*domain.Proposal, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockProposalService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockProposalService) List(ctx context.Context, offset, limit int) ([]domain.Proposal, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Proposal), args.Int(1), args.Error(2)
}

func (m *MockProposalService) LatestTasks(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskSnapshot), args.Error(1)
}

func (m *MockProposalService) ListSnapshots(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaskSnapshot), args.Error(1)
}

func (m *MockProposalService) ClarifyTasks(ctx context.Context, input *service.ClarifyTasksInput) (*domain.TaskSnapshot, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskSnapshot), args.Error(1)
}

func (m *MockProposalService) RefinementHistory(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockProposalService) Reparse(ctx context.Context, proposalID uuid.UUID) (*domain.Proposal, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockProposalService) Delete(ctx context.Context, proposalID uuid.UUID) error {
	args := m.Called(ctx, proposalID)
	return args.Error(0)
}

func (m *MockProposalService) FileDownloadURL(ctx context.Context, fileID uuid.UUID) (string, error) {
	args := m.Called(ctx, fileID)
	return args.String(0), args.Error(1)
}

func (m *MockProposalService) ExtractProposal(ctx context.Context, proposal *domain.Proposal, maxAttempts int) {
	m.Called(ctx, proposal, maxAttempts)
}
