package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// MockAuthService is a mock implementation of the auth service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) GetCurrentUser(ctx context.Context, sess session.Session) (*session.Identity, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Identity), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*auth.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password string, profile auth.SignUpProfile) (*auth.Result, error) {
	args := m.Called(ctx, email, password, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, sess session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

// MockAuthProvider is a mock implementation of auth.Provider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) SignIn(ctx context.Context, email, password string) (*auth.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *MockAuthProvider) SignUp(ctx context.Context, email, password string, profile auth.SignUpProfile) (*auth.Result, error) {
	args := m.Called(ctx, email, password, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *MockAuthProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}
