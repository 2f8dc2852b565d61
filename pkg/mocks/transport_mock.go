package mocks

import (
	"context"

	"github.com/dukex/autoflow/pkg/transport"
	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of transport.EmailSender interface.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, email transport.Email) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}
