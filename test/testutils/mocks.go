// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockGateway provides a mock implementation of outbound.Gateway
type MockGateway struct {
	mock.Mock
}

// Call records the call and returns the configured response
func (m *MockGateway) Call(ctx context.Context, path string, opts outbound.CallOptions) (any, error) {
	args := m.Called(ctx, path, opts)
	return args.Get(0), args.Error(1)
}

// PathPrefix matches a call path by its prefix.
func PathPrefix(prefix string) interface{} {
	return mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// Method matches CallOptions by HTTP method. An empty method matches GET.
func Method(method string) interface{} {
	return mock.MatchedBy(func(opts outbound.CallOptions) bool {
		got := opts.Method
		if got == "" {
			got = "GET"
		}
		return got == method
	})
}

// RecordedEvent is one notification captured by MockNotifier.
type RecordedEvent struct {
	UserID string
	Event  client.Event
}

// MockNotifier captures events instead of delivering them.
type MockNotifier struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// Notify records the event
func (m *MockNotifier) Notify(userID string, event client.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, RecordedEvent{UserID: userID, Event: event})
}

// Events returns the captured events in order.
func (m *MockNotifier) Events() []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedEvent(nil), m.events...)
}

// FixedIdentity is an outbound.InstanceIdentity that always returns itself.
type FixedIdentity string

// InstanceID returns the fixed id
func (f FixedIdentity) InstanceID(context.Context) (string, error) {
	return string(f), nil
}
