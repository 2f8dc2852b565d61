package mocks

import (
	"context"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockCompletionService is a mock implementation of completion.Service interface.
type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Generate(ctx context.Context, prompt string, hints models.StyleHints) (string, error) {
	args := m.Called(ctx, prompt, hints)

	return args.String(0), args.Error(1)
}

func (m *MockCompletionService) Reply(ctx context.Context, history []models.Message, message string) (string, error) {
	args := m.Called(ctx, history, message)

	return args.String(0), args.Error(1)
}
