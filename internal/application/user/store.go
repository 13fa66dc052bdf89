package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
)

// readMap loads a JSON object stored under key. A missing key, malformed JSON
// or a non-object value all read as an empty map.
func readMap(ctx context.Context, store outbound.KeyValueStore, key string) (map[string]any, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, outbound.ErrKeyNotFound) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}, nil
	}
	return out, nil
}

func writeMap(ctx context.Context, store outbound.KeyValueStore, key string, m map[string]any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, raw)
}
