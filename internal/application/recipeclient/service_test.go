package recipeclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alchemorsel/recipeclient/internal/application/user"
	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/memory"
	apperrors "github.com/alchemorsel/recipeclient/pkg/errors"
	"github.com/alchemorsel/recipeclient/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	gateway  *testutils.MockGateway
	notifier *testutils.MockNotifier
	users    *user.UserService
	service  *Service
	state    *client.State
	factory  *testutils.RecordFactory
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = &testutils.MockGateway{}
	s.notifier = &testutils.MockNotifier{}
	s.users = user.NewUserService(memory.NewKVStore(), zap.NewNop())
	s.service = NewService(s.gateway, s.users, s.notifier, nil, 502, zap.NewNop())
	s.state = client.NewState()
	s.factory = testutils.NewRecordFactory(42)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.gateway.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) signIn(id string) {
	s.Require().NoError(s.service.SignIn(s.ctx, s.state, id))
}

func (s *ServiceTestSuite) TestSignIn() {
	s.signIn("  alice ")

	userID, signedIn := s.state.User()
	s.Equal("alice", userID)
	s.True(signedIn)
	s.Equal("Signed in locally as alice", s.state.Toast())

	events := s.notifier.Events()
	s.Require().Len(events, 1)
	s.Equal("alice", events[0].UserID)
	s.Equal(client.Event{"type": "signin", "event": "user_signed_in"}, events[0].Event)

	users, err := s.users.LocalUsers(s.ctx)
	s.Require().NoError(err)
	s.Contains(users, "alice")
}

func (s *ServiceTestSuite) TestSignInRejectsBlank() {
	err := s.service.SignIn(s.ctx, s.state, "   ")
	s.Require().Error(err)
	s.Equal("Please enter a user id.", s.state.Error())

	_, signedIn := s.state.User()
	s.False(signedIn)
	s.Empty(s.notifier.Events())
}

func (s *ServiceTestSuite) TestFetchRequiresSignIn() {
	err := s.service.FetchHealthyRecommendations(s.ctx, s.state, 600)
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
	s.Equal(MsgSignInFirst, s.state.Error())
	s.gateway.AssertNotCalled(s.T(), "Call", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestFetchBuildsQueryWithServiceClientID() {
	s.signIn("alice")
	s.gateway.On("Call", mock.Anything, "/user/recommendHealthy?userId=502&calorieMax=450", testutils.Method("GET")).
		Return([]any{}, nil).Once()

	s.Require().NoError(s.service.FetchHealthyRecommendations(s.ctx, s.state, 450))
	s.Equal(450, s.state.CalorieMax())
}

func (s *ServiceTestSuite) TestFetchNormalisesBothShapes() {
	s.signIn("alice")
	entries := []any{
		map[string]any{"id": json.Number("1"), "title": "A"},
		map[string]any{"id": json.Number("2"), "title": "B"},
	}

	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/user/recommendHealthy"), mock.Anything).
		Return(entries, nil).Once()
	s.Require().NoError(s.service.FetchHealthyRecommendations(s.ctx, s.state, 600))
	bare := s.state.Recipes()

	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/user/recommendHealthy"), mock.Anything).
		Return(map[string]any{"recipes": entries}, nil).Once()
	s.Require().NoError(s.service.FetchHealthyRecommendations(s.ctx, s.state, 600))
	wrapped := s.state.Recipes()

	s.Equal(bare, wrapped)
	s.Len(wrapped, 2)
}

func (s *ServiceTestSuite) TestFetchTruncatesToSix() {
	s.signIn("alice")
	list := testutils.AsJSONArray(s.factory.Summaries(9))
	s.gateway.On("Call", mock.Anything, mock.Anything, mock.Anything).Return(list, nil).Once()

	s.Require().NoError(s.service.FetchHealthyRecommendations(s.ctx, s.state, 600))

	got := s.state.Recipes()
	s.Require().Len(got, 6)
	for i := range got {
		s.Equal(list[i].(map[string]any)["id"], got[i]["id"])
	}
}

func (s *ServiceTestSuite) TestFetchEmptyShowsNotice() {
	s.signIn("alice")
	s.gateway.On("Call", mock.Anything, mock.Anything, mock.Anything).Return(map[string]any{}, nil).Once()

	s.Require().NoError(s.service.FetchHealthyRecommendations(s.ctx, s.state, 600))
	s.Empty(s.state.Recipes())
	s.Equal(MsgNoRecipesFound, s.state.Toast())
}

func (s *ServiceTestSuite) TestFetchBackendErrorSurfacesMessage() {
	s.signIn("alice")
	s.gateway.On("Call", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewBackendError(500, "Server error occurred")).Once()

	err := s.service.FetchHealthyRecommendations(s.ctx, s.state, 600)
	s.Require().Error(err)
	s.Equal("Server error occurred", s.state.Error())
	s.False(s.state.Snapshot().Loading)
	s.Empty(s.state.Snapshot().Toast, "an error hides the notice")
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsMergesNestedRecipe() {
	summary := recipe.Record{"id": json.Number("7"), "title": "Soup"}
	s.gateway.On("Call", mock.Anything, "/recipe/viewRecipe?recipeId=7", testutils.Method("POST")).
		Return(map[string]any{"recipe": map[string]any{"title": "Stale", "steps": []any{"boil"}}}, nil).Once()
	s.gateway.On("Call", mock.Anything, "/recipe/calorieBreakdown?recipeId=7", testutils.Method("GET")).
		Return(map[string]any{"carrot": json.Number("25")}, nil).Once()

	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, summary))

	selected := s.state.Selected()
	s.Equal("Soup", selected["title"], "summary wins on conflicts")
	s.Equal([]any{"boil"}, selected["steps"])
	s.Equal(recipe.Breakdown{"carrot": json.Number("25")}, s.state.Breakdown())
	s.False(s.state.Snapshot().DetailLoading)
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsMergesWholeResponse() {
	summary := recipe.Record{"recipeId": "abc", "name": "Salad"}
	s.gateway.On("Call", mock.Anything, "/recipe/viewRecipe?recipeId=abc", mock.Anything).
		Return(map[string]any{"name": "Other", "category": "lunch"}, nil).Once()
	s.gateway.On("Call", mock.Anything, "/recipe/calorieBreakdown?recipeId=abc", mock.Anything).
		Return([]any{"x", "y"}, nil).Once()

	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, summary))

	selected := s.state.Selected()
	s.Equal("Salad", selected["name"])
	s.Equal("lunch", selected["category"])
	s.Equal(recipe.Breakdown{recipe.RawResponseKey: `["x","y"]`}, s.state.Breakdown())
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsGeneratedDetail() {
	summary := s.factory.Summary()
	detail := s.factory.Detail()
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/viewRecipe"), mock.Anything).
		Return(map[string]any{"recipe": map[string]any(detail)}, nil).Once()
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/calorieBreakdown"), mock.Anything).
		Return(map[string]any{}, nil).Once()

	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, summary))

	selected := s.state.Selected()
	s.Equal(summary["title"], selected["title"])
	s.Equal(detail["steps"], selected["steps"])

	ingredients, ok := recipe.Ingredients(selected)
	s.Require().True(ok)
	s.Len(ingredients, 2)
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsTextResponseKeepsSummary() {
	summary := recipe.Record{"id": json.Number("3"), "title": "Toast"}
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/viewRecipe"), mock.Anything).
		Return("viewed", nil).Once()
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/calorieBreakdown"), mock.Anything).
		Return(nil, nil).Once()

	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, summary))
	s.Equal(summary, s.state.Selected())
	s.Equal(recipe.Breakdown{recipe.RawResponseKey: "null"}, s.state.Breakdown())
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsWithoutIDIsNoop() {
	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, recipe.Record{"title": "No id"}))
	s.Require().NoError(s.service.OpenRecipeDetails(s.ctx, s.state, nil))
	s.Nil(s.state.Selected())
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsViewFailure() {
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/viewRecipe"), mock.Anything).
		Return(nil, apperrors.NewBackendError(400, "Bad request")).Once()

	err := s.service.OpenRecipeDetails(s.ctx, s.state, recipe.Record{"id": json.Number("3")})
	s.Require().Error(err)
	s.Equal("Bad request", s.state.Error())
	s.Nil(s.state.Selected())
	s.Nil(s.state.Breakdown())
}

func (s *ServiceTestSuite) TestOpenRecipeDetailsBreakdownFailureKeepsDetail() {
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/viewRecipe"), mock.Anything).
		Return(map[string]any{"steps": []any{"mix"}}, nil).Once()
	s.gateway.On("Call", mock.Anything, testutils.PathPrefix("/recipe/calorieBreakdown"), mock.Anything).
		Return(nil, apperrors.NewBackendError(503, "Request failed with status 503")).Once()

	err := s.service.OpenRecipeDetails(s.ctx, s.state, recipe.Record{"id": json.Number("3")})
	s.Require().Error(err)
	s.Equal("Request failed with status 503", s.state.Error())
	s.NotNil(s.state.Selected())
	s.Nil(s.state.Breakdown())
}

func (s *ServiceTestSuite) TestLikeRequiresSignIn() {
	err := s.service.LikeRecipe(s.ctx, s.state, recipe.Record{"id": json.Number("1")})
	s.Require().Error(err)
	s.Equal(MsgSignInToLike, s.state.Error())
	s.gateway.AssertNotCalled(s.T(), "Call", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestLikeRecipe() {
	s.signIn("alice")
	summary := recipe.Record{"id": json.Number("101"), "title": "Soup"}
	s.gateway.On("Call", mock.Anything, "/user/likeRecipe?userId=502&recipeId=101", testutils.Method("POST")).
		Return(nil, nil).Twice()

	s.False(s.service.IsLiked(s.state, summary))
	s.Require().NoError(s.service.LikeRecipe(s.ctx, s.state, summary))
	s.Require().NoError(s.service.LikeRecipe(s.ctx, s.state, summary))

	s.True(s.service.IsLiked(s.state, summary))
	s.Len(s.state.LikedIDs(), 1)
	s.Equal(`User alice liked "Soup"`, s.state.Toast())

	likes, err := s.service.PersistedLikes(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]any{json.Number("101")}, likes)

	events := s.notifier.Events()
	s.Require().Len(events, 3)
	s.Equal(client.Event{
		"type":        "like",
		"event":       "user_liked_recipe",
		"recipeId":    json.Number("101"),
		"recipeTitle": "Soup",
	}, events[1].Event)
}

func (s *ServiceTestSuite) TestLikeFailureLeavesStateUnchanged() {
	s.signIn("alice")
	summary := recipe.Record{"id": json.Number("5")}
	s.gateway.On("Call", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewBackendError(400, "Bad request")).Once()

	s.Require().Error(s.service.LikeRecipe(s.ctx, s.state, summary))
	s.False(s.service.IsLiked(s.state, summary))
	s.Equal("Bad request", s.state.Error())

	likes, err := s.service.PersistedLikes(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(likes)
}

func (s *ServiceTestSuite) TestLikeWithoutIDIsNoop() {
	s.signIn("alice")
	s.Require().NoError(s.service.LikeRecipe(s.ctx, s.state, recipe.Record{"title": "x"}))
	s.False(s.service.IsLiked(s.state, recipe.Record{"title": "x"}))
}

func (s *ServiceTestSuite) TestFind() {
	s.state.SetRecipes([]recipe.Record{
		{"id": json.Number("101"), "title": "Soup"},
		{"id": "101", "title": "Stew"},
		{"title": "No id"},
		nil,
	})

	r, ok := s.service.Find(s.state, "101")
	s.Require().True(ok)
	s.Equal("Soup", r["title"])

	r, ok = s.service.Find(s.state, `"101"`)
	s.Require().True(ok)
	s.Equal("Stew", r["title"])

	_, ok = s.service.Find(s.state, "")
	s.False(ok)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
