package user

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/memory"
	apperrors "github.com/alchemorsel/recipeclient/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type UserServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.KVStore
	service *UserService
}

func (s *UserServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewKVStore()
	s.service = NewUserService(s.store, zap.NewNop())
	s.service.now = func() time.Time { return time.UnixMilli(1700000000000) }
}

func (s *UserServiceTestSuite) TestInstanceIDIsCreatedOnce() {
	first, err := s.service.GetOrCreateInstanceID(s.ctx)
	s.Require().NoError(err)
	s.Len(first, 36)

	second, err := s.service.InstanceID(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second)

	stored, err := s.store.Get(s.ctx, InstanceIDKey)
	s.Require().NoError(err)
	s.Equal(first, string(stored))
}

func (s *UserServiceTestSuite) TestInstanceIDSurvivesRestart() {
	id, err := s.service.InstanceID(s.ctx)
	s.Require().NoError(err)

	restarted := NewUserService(s.store, zap.NewNop())
	again, err := restarted.InstanceID(s.ctx)
	s.Require().NoError(err)
	s.Equal(id, again)
}

func (s *UserServiceTestSuite) TestExistingInstanceIDIsKept() {
	s.Require().NoError(s.store.Set(s.ctx, InstanceIDKey, []byte("existing-id")))

	id, err := s.service.InstanceID(s.ctx)
	s.Require().NoError(err)
	s.Equal("existing-id", id)
}

func (s *UserServiceTestSuite) TestRegisterLocalUserRejectsBlank() {
	_, err := s.service.RegisterLocalUser(s.ctx, "   ")
	s.Require().Error(err)
	s.Equal(apperrors.CodeValidationFailed, apperrors.GetCode(err))
	s.Equal("Please enter a user id.", apperrors.UserMessage(err))

	users, err := s.service.LocalUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *UserServiceTestSuite) TestRegisterLocalUserTrimsAndStampsLastSeen() {
	id, err := s.service.RegisterLocalUser(s.ctx, "  alice ")
	s.Require().NoError(err)
	s.Equal("alice", id)

	users, err := s.service.LocalUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Contains(users, "alice")
	s.Equal(json.Number("1700000000000"), users["alice"]["lastSeen"])
}

func (s *UserServiceTestSuite) TestRegisterLocalUserKeepsOtherFields() {
	s.Require().NoError(s.store.Set(s.ctx, LocalUsersKey,
		[]byte(`{"alice":{"nickname":"Al","lastSeen":1},"bob":{"lastSeen":2}}`)))

	_, err := s.service.RegisterLocalUser(s.ctx, "alice")
	s.Require().NoError(err)

	users, err := s.service.LocalUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal("Al", users["alice"]["nickname"])
	s.Equal(json.Number("1700000000000"), users["alice"]["lastSeen"])
	s.Equal(json.Number("2"), users["bob"]["lastSeen"])
}

func (s *UserServiceTestSuite) TestMalformedRegistryReadsAsEmpty() {
	s.Require().NoError(s.store.Set(s.ctx, LocalUsersKey, []byte("not json")))

	_, err := s.service.RegisterLocalUser(s.ctx, "carol")
	s.Require().NoError(err)

	users, err := s.service.LocalUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
	s.Contains(users, "carol")
}

func (s *UserServiceTestSuite) TestAddLikeDeduplicates() {
	_, err := s.service.AddLike(s.ctx, "u1", 7)
	s.Require().NoError(err)
	_, err = s.service.AddLike(s.ctx, "u1", json.Number("8"))
	s.Require().NoError(err)
	likes, err := s.service.AddLike(s.ctx, "u1", 7)
	s.Require().NoError(err)
	s.Len(likes, 2)

	stored, err := s.service.Likes(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]any{json.Number("7"), json.Number("8")}, stored)
}

func (s *UserServiceTestSuite) TestAddLikeWithoutUserUsesAnonymousBucket() {
	_, err := s.service.AddLike(s.ctx, "", "r-1")
	s.Require().NoError(err)

	likes, err := s.service.Likes(s.ctx, "anonymous")
	s.Require().NoError(err)
	s.Equal([]any{"r-1"}, likes)

	other, err := s.service.Likes(s.ctx, "u2")
	s.Require().NoError(err)
	s.Empty(other)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func TestReadMapNonObject(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, "k", []byte(`[1,2,3]`)))

	m, err := readMap(ctx, store, "k")
	require.NoError(t, err)
	assert.Empty(t, m)
}
