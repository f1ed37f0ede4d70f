package analytics

import (
	"context"
	"sync"
)

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	mu   sync.RWMutex
	data Fixtures
}

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data Fixtures) *MockClient {
	return &MockClient{data: data.Clone()}
}

// FetchSnapshot returns a copy of the configured snapshot. Filtering is left to the repository.
func (c *MockClient) FetchSnapshot(context.Context, SnapshotQuery) (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Snapshot.Clone(), nil
}

// FetchFixtures returns a copy of every configured dataset.
func (c *MockClient) FetchFixtures(context.Context) (Fixtures, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Clone(), nil
}

// Replace swaps the fixtures, e.g. after a fixture file reload.
func (c *MockClient) Replace(data Fixtures) {
	c.mu.Lock()
	c.data = data.Clone()
	c.mu.Unlock()
}
