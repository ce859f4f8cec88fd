//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

// MockDirectionLimiter 转向限制器 mock
type MockDirectionLimiter struct {
	mock.Mock
}

func (m *MockDirectionLimiter) AllowDirection(clientID string) bool {
	args := m.Called(clientID)
	return args.Bool(0)
}

func (m *MockDirectionLimiter) RemoveClient(clientID string) {
	m.Called(clientID)
}
