// Package recipeclient implements the recipe client's use cases: local
// sign-in, healthy recommendations, recipe details with their calorie
// breakdown, and likes.
package recipeclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/alchemorsel/recipeclient/internal/ports/inbound"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	apperrors "github.com/alchemorsel/recipeclient/pkg/errors"
	"go.uber.org/zap"
)

// User-visible messages.
const (
	MsgSignInFirst    = "Please enter a user id and press Sign In first."
	MsgSignInToLike   = "Sign in with a user id before liking recipes."
	MsgNoRecipesFound = "No healthy recipes found for this client and calorie limit."
)

// Backend paths.
const (
	pathRecommendHealthy = "/user/recommendHealthy"
	pathViewRecipe       = "/recipe/viewRecipe"
	pathCalorieBreakdown = "/recipe/calorieBreakdown"
	pathLikeRecipe       = "/user/likeRecipe"
)

// UserDirectory is the local identity store as seen by the client service.
type UserDirectory interface {
	RegisterLocalUser(ctx context.Context, userID string) (string, error)
	AddLike(ctx context.Context, userID string, recipeID any) ([]any, error)
	Likes(ctx context.Context, userID string) ([]any, error)
}

// Metrics counts client activity. Implementations must be safe for concurrent use.
type Metrics interface {
	SignedIn()
	RecipeViewed()
	RecipeLiked()
}

// Compile-time interface check.
var _ inbound.RecipeClient = (*Service)(nil)

// Service orchestrates calls to the recipe service on behalf of one browser's State.
type Service struct {
	gateway         outbound.Gateway
	users           UserDirectory
	notifier        outbound.EventNotifier
	metrics         Metrics
	serviceClientID int
	logger          *zap.Logger
}

// NewService creates the recipe client service. metrics may be nil.
func NewService(
	gateway outbound.Gateway,
	users UserDirectory,
	notifier outbound.EventNotifier,
	metrics Metrics,
	serviceClientID int,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:         gateway,
		users:           users,
		notifier:        notifier,
		metrics:         metrics,
		serviceClientID: serviceClientID,
		logger:          logger.Named("recipe-client"),
	}
}

// SignIn registers userID locally and marks the state as signed in.
func (s *Service) SignIn(ctx context.Context, state *client.State, userID string) error {
	state.SetUserInput(userID)

	id, err := s.users.RegisterLocalUser(ctx, userID)
	if err != nil {
		return s.fail(state, err)
	}

	state.SignIn(id)
	state.ShowToast("Signed in locally as " + id)
	if s.metrics != nil {
		s.metrics.SignedIn()
	}

	s.notifier.Notify(id, client.Event{
		"type":  client.EventTypeSignIn,
		"event": client.EventSignedIn,
	})

	s.logger.Info("User signed in locally", zap.String("user_id", id))
	return nil
}

// FetchHealthyRecommendations loads up to six recipes under calorieMax.
func (s *Service) FetchHealthyRecommendations(ctx context.Context, state *client.State, calorieMax int) error {
	state.SetCalorieMax(calorieMax)

	if _, signedIn := state.User(); !signedIn {
		return s.fail(state, apperrors.NewValidationError(MsgSignInFirst))
	}

	state.SetLoading(true)
	defer state.SetLoading(false)
	state.SetError("")
	state.ClearDetail()

	path := fmt.Sprintf("%s?userId=%s&calorieMax=%s",
		pathRecommendHealthy,
		escapeParam(strconv.Itoa(s.serviceClientID)),
		escapeParam(strconv.Itoa(calorieMax)),
	)

	data, err := s.call(ctx, state, path, outbound.CallOptions{})
	if err != nil {
		return s.fail(state, err)
	}

	list := recipe.NormalizeList(data, recipe.MaxRecommendations)
	state.SetRecipes(list)

	if len(list) == 0 {
		state.ShowToast(MsgNoRecipesFound)
	}

	s.logger.Debug("Loaded recommendations",
		zap.Int("calorie_max", calorieMax),
		zap.Int("count", len(list)),
	)
	return nil
}

// OpenRecipeDetails fetches the detail and calorie breakdown of summary. The
// detail is shown as soon as it arrives; a failed breakdown leaves it in place.
func (s *Service) OpenRecipeDetails(ctx context.Context, state *client.State, summary recipe.Record) error {
	if summary == nil {
		return nil
	}
	id := recipe.ResolveID(summary)
	if id == nil {
		return nil
	}

	state.ClearDetail()
	state.SetDetailLoading(true)
	defer state.SetDetailLoading(false)
	state.SetError("")

	param := escapeParam(recipe.FormatValue(id))

	// viewRecipe is a POST on the service even though it only reads.
	view, err := s.call(ctx, state, pathViewRecipe+"?recipeId="+param, outbound.CallOptions{Method: "POST"})
	if err != nil {
		return s.fail(state, err)
	}

	full := summary
	if detail, ok := recipe.AsRecord(view); ok {
		if nested, ok := recipe.AsRecord(detail["recipe"]); ok {
			full = recipe.Merge(summary, nested)
		} else {
			full = recipe.Merge(summary, detail)
		}
	}
	state.SetSelected(full)
	if s.metrics != nil {
		s.metrics.RecipeViewed()
	}

	breakdown, err := s.call(ctx, state, pathCalorieBreakdown+"?recipeId="+param, outbound.CallOptions{})
	if err != nil {
		return s.fail(state, err)
	}
	state.SetBreakdown(recipe.NormalizeBreakdown(breakdown))
	return nil
}

// LikeRecipe likes summary on the service and records it locally.
func (s *Service) LikeRecipe(ctx context.Context, state *client.State, summary recipe.Record) error {
	userID, signedIn := state.User()
	if !signedIn {
		return s.fail(state, apperrors.NewValidationError(MsgSignInToLike))
	}
	if summary == nil {
		return nil
	}
	id := recipe.ResolveID(summary)
	if id == nil {
		return nil
	}

	path := fmt.Sprintf("%s?userId=%s&recipeId=%s",
		pathLikeRecipe,
		escapeParam(strconv.Itoa(s.serviceClientID)),
		escapeParam(recipe.FormatValue(id)),
	)
	if _, err := s.call(ctx, state, path, outbound.CallOptions{Method: "POST"}); err != nil {
		return s.fail(state, err)
	}

	state.AddLiked(id)

	bucket := userID
	if bucket == "" {
		bucket = client.AnonymousUser
	}
	if _, err := s.users.AddLike(ctx, bucket, id); err != nil {
		s.logger.Warn("Failed to persist like",
			zap.String("user_id", bucket),
			zap.Any("recipe_id", id),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.RecipeLiked()
	}

	title := recipe.ResolveTitle(summary)
	s.notifier.Notify(userID, client.Event{
		"type":        client.EventTypeLike,
		"event":       client.EventLikedRecipe,
		"recipeId":    id,
		"recipeTitle": title,
	})

	state.ShowToast(fmt.Sprintf("User %s liked \"%s\"", bucket, title))
	return nil
}

// IsLiked reports whether summary was liked in this session.
func (s *Service) IsLiked(state *client.State, summary recipe.Record) bool {
	return state.IsLiked(recipe.ResolveID(summary))
}

// Find returns the loaded recommendation whose identifier key is key.
func (s *Service) Find(state *client.State, key string) (recipe.Record, bool) {
	if key == "" {
		return nil, false
	}
	for _, r := range state.Recipes() {
		if id := recipe.ResolveID(r); id != nil && recipe.IDKey(id) == key {
			return r, true
		}
	}
	return nil, false
}

// PersistedLikes returns the liked ids stored for userID.
func (s *Service) PersistedLikes(ctx context.Context, userID string) ([]any, error) {
	return s.users.Likes(ctx, userID)
}

// call clears the current error before each request, as every new action
// replaces whatever failed last.
func (s *Service) call(ctx context.Context, state *client.State, path string, opts outbound.CallOptions) (any, error) {
	state.SetError("")
	return s.gateway.Call(ctx, path, opts)
}

func (s *Service) fail(state *client.State, err error) error {
	state.SetError(apperrors.UserMessage(err))
	if apperrors.Is(err, apperrors.CodeValidationFailed) {
		s.logger.Debug("Action rejected", zap.Error(err))
	} else {
		s.logger.Error("Action failed", zap.Error(err))
	}
	return err
}

// escapeParam escapes a query parameter the way encodeURIComponent does.
func escapeParam(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
