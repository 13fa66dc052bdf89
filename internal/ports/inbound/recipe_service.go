// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// The web server drives the recipe client through these.
package inbound

import (
	"context"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
)

// RecipeClient is everything a page can ask of the recipe client. Every
// operation works on the caller's State and reports user-visible failures
// both through State and the returned error.
type RecipeClient interface {
	SignIn(ctx context.Context, state *client.State, userID string) error
	FetchHealthyRecommendations(ctx context.Context, state *client.State, calorieMax int) error
	OpenRecipeDetails(ctx context.Context, state *client.State, summary recipe.Record) error
	LikeRecipe(ctx context.Context, state *client.State, summary recipe.Record) error
	IsLiked(state *client.State, summary recipe.Record) bool
	Find(state *client.State, key string) (recipe.Record, bool)
	PersistedLikes(ctx context.Context, userID string) ([]any, error)
}

// Identity exposes the installation identity for display.
type Identity interface {
	InstanceID(ctx context.Context) (string, error)
}
