package client

// Event types and names sent to the audit endpoint.
const (
	EventTypeSignIn = "signin"
	EventSignedIn   = "user_signed_in"

	EventTypeLike    = "like"
	EventLikedRecipe = "user_liked_recipe"
)

// AnonymousUser is the likes bucket used when no user id is set.
const AnonymousUser = "anonymous"

// Event is the caller-supplied part of an audit record. The event logger adds
// instanceId, serviceClientId, userId and timestamp before these fields.
type Event map[string]any

// ClientEvent is an audit record as received by the local /client/log
// endpoint. Absent fields are written back as null.
type ClientEvent struct {
	InstanceID      *string `json:"instanceId"`
	ServiceClientID *int    `json:"serviceClientId"`
	UserID          *string `json:"userId"`
	Type            *string `json:"type"`
	Event           *string `json:"event"`
	RecipeID        any     `json:"recipeId"`
	RecipeTitle     *string `json:"recipeTitle"`
	Timestamp       *string `json:"timestamp"`
}

// LocalUser is an entry of the local user registry.
type LocalUser map[string]any
