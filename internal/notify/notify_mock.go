package notify

import (
	"context"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of Notifier for testing.
type MockNotifier struct {
	mock.Mock
}

var _ contract.Notifier = &MockNotifier{} // Compile-time check

// Send implements the Notifier interface.
func (m *MockNotifier) Send(ctx context.Context, msg contract.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
