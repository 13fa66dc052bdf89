// Package user provides the application layer for the local identity: the
// per-installation id, the registry of locally signed-in users and each
// user's persisted likes.
package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	apperrors "github.com/alchemorsel/recipeclient/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage keys.
const (
	InstanceIDKey = "instanceId"
	LocalUsersKey = "demoUsers"
	UserLikesKey  = "userLikes"
)

// UserService implements the identity store and the persisted likes registry
type UserService struct {
	store  outbound.KeyValueStore
	logger *zap.Logger
	now    func() time.Time

	// mu serialises read-modify-write cycles on the stored maps.
	mu         sync.Mutex
	instanceID string
}

// NewUserService creates a new user service
func NewUserService(store outbound.KeyValueStore, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger.Named("user-service"),
		now:    time.Now,
	}
}

// InstanceID returns the installation identity, creating it on first use.
func (s *UserService) InstanceID(ctx context.Context) (string, error) {
	return s.GetOrCreateInstanceID(ctx)
}

// GetOrCreateInstanceID reads the persisted installation id. When none is
// stored a random UUID is generated and persisted before it is returned.
func (s *UserService) GetOrCreateInstanceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instanceID != "" {
		return s.instanceID, nil
	}

	raw, err := s.store.Get(ctx, InstanceIDKey)
	switch {
	case err == nil && len(raw) > 0:
		s.instanceID = string(raw)
		return s.instanceID, nil
	case err != nil && !errors.Is(err, outbound.ErrKeyNotFound):
		return "", apperrors.Wrap(err, "Failed to read instance id")
	}

	id := uuid.New().String()
	if err := s.store.Set(ctx, InstanceIDKey, []byte(id)); err != nil {
		return "", apperrors.Wrap(err, "Failed to save instance id")
	}
	s.logger.Info("Created installation identity", zap.String("instance_id", id))

	s.instanceID = id
	return id, nil
}

// RegisterLocalUser records that userID was seen now and returns the trimmed
// id. Existing fields of the user's record are kept.
func (s *UserService) RegisterLocalUser(ctx context.Context, userID string) (string, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "", apperrors.NewValidationError("Please enter a user id.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := readMap(ctx, s.store, LocalUsersKey)
	if err != nil {
		return "", apperrors.Wrap(err, "Failed to read local users")
	}

	record := map[string]any{}
	if existing, ok := users[trimmed].(map[string]any); ok {
		for k, v := range existing {
			record[k] = v
		}
	}
	record["lastSeen"] = s.now().UnixMilli()
	users[trimmed] = record

	if err := writeMap(ctx, s.store, LocalUsersKey, users); err != nil {
		return "", apperrors.Wrap(err, "Failed to save local users")
	}

	s.logger.Debug("Registered local user", zap.String("user_id", trimmed))
	return trimmed, nil
}

// LocalUsers returns the local user registry.
func (s *UserService) LocalUsers(ctx context.Context) (map[string]client.LocalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := readMap(ctx, s.store, LocalUsersKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to read local users")
	}

	out := make(map[string]client.LocalUser, len(users))
	for id, v := range users {
		if m, ok := v.(map[string]any); ok {
			out[id] = client.LocalUser(m)
		}
	}
	return out, nil
}

// AddLike merges recipeID into the persisted likes of userID (or the
// anonymous bucket) and returns the resulting list. Ids are deduplicated.
func (s *UserService) AddLike(ctx context.Context, userID string, recipeID any) ([]any, error) {
	if userID == "" {
		userID = client.AnonymousUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := readMap(ctx, s.store, UserLikesKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to read likes")
	}

	existing, _ := likes[userID].([]any)
	merged := make([]any, 0, len(existing)+1)
	seen := make(map[string]struct{}, len(existing)+1)
	for _, id := range append(existing, recipeID) {
		key := recipe.IDKey(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, id)
	}
	likes[userID] = merged

	if err := writeMap(ctx, s.store, UserLikesKey, likes); err != nil {
		return nil, apperrors.Wrap(err, "Failed to save likes")
	}
	return merged, nil
}

// Likes returns the persisted likes of userID (or the anonymous bucket).
func (s *UserService) Likes(ctx context.Context, userID string) ([]any, error) {
	if userID == "" {
		userID = client.AnonymousUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	likes, err := readMap(ctx, s.store, UserLikesKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to read likes")
	}
	list, _ := likes[userID].([]any)
	return list, nil
}
