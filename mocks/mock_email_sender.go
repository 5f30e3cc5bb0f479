package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"worklane/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendReparseSummary(ctx context.Context, notification port.ReparseNotification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}
