// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"net/http"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the durable local storage the client keeps its
// installation id, local user registry and likes in.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CallOptions customise one backend call. The zero value is a GET without body.
type CallOptions struct {
	Method string
	Header http.Header
	Body   any
}

// Gateway calls the recipe service and returns the decoded body: a JSON value
// (objects as map[string]any, numbers as json.Number), the raw text when the
// body is not JSON, or nil when it is empty.
type Gateway interface {
	Call(ctx context.Context, path string, opts CallOptions) (any, error)
}

// EventNotifier delivers audit events. It never fails the caller.
type EventNotifier interface {
	Notify(userID string, event client.Event)
}

// InstanceIdentity resolves the installation identity.
type InstanceIdentity interface {
	InstanceID(ctx context.Context) (string, error)
}
