package registry

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of Fetcher for testing.
type MockFetcher struct {
	mock.Mock
}

// Fetch is the mock implementation of the Fetch method.
func (m *MockFetcher) Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(FetchResponse), args.Error(1) //nolint:wrapcheck
}

// MockCache is a mock implementation of Cache for testing.
type MockCache struct {
	mock.Mock
}

// Get is the mock implementation of the Get method.
func (m *MockCache) Get(ctx context.Context, id Identifier) (CompanyRecord, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(CompanyRecord), args.Bool(1), args.Error(2) //nolint:wrapcheck
}

// Put is the mock implementation of the Put method.
func (m *MockCache) Put(ctx context.Context, rec CompanyRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0) //nolint:wrapcheck
}

// Stats is the mock implementation of the Stats method.
func (m *MockCache) Stats(ctx context.Context) (Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(Stats), args.Error(1) //nolint:wrapcheck
}

// Close is the mock implementation of the Close method.
func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck
}
