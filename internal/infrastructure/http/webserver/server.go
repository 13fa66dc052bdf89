// Package webserver provides the web frontend HTTP server implementation
package webserver

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipeclient/internal/ports/inbound"
	"github.com/alchemorsel/recipeclient/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Form messages.
const (
	msgInvalidCalorieMax = "Max calories must be a whole number of zero or more."
	msgInvalidUserID     = "User id is too long."
)

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config          *config.Config
	logger          *zap.Logger
	server          *http.Server
	router          *chi.Mux
	service         inbound.RecipeClient
	identity        inbound.Identity
	sessions        *SessionStore
	middleware      *middleware.Middleware
	metrics         *monitoring.MetricsCollector
	health          *healthcheck.HealthCheck
	clientLog       *ClientLogWriter
	templates       *template.Template
	validate        *validator.Validate
	serviceClientID int
}

// Dependencies groups what the web server needs from the rest of the application.
type Dependencies struct {
	Service    inbound.RecipeClient
	Identity   inbound.Identity
	Sessions   *SessionStore
	Middleware *middleware.Middleware
	Metrics    *monitoring.MetricsCollector
	Health     *healthcheck.HealthCheck
	ClientLog  *ClientLogWriter
}

// NewWebServer creates a new web frontend server instance
func NewWebServer(cfg *config.Config, log *zap.Logger, deps Dependencies) (*WebServer, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	server := &WebServer{
		config:          cfg,
		logger:          log.Named("webserver"),
		service:         deps.Service,
		identity:        deps.Identity,
		sessions:        deps.Sessions,
		middleware:      deps.Middleware,
		metrics:         deps.Metrics,
		health:          deps.Health,
		clientLog:       deps.ClientLog,
		templates:       templates,
		validate:        validator.New(),
		serviceClientID: cfg.API.ServiceClientID,
	}

	server.router = server.setupRoutes()
	server.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures the web frontend routes
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.middleware.Logger)
	r.Use(s.middleware.Recovery)
	r.Use(s.metrics.HTTPMiddleware)
	r.Use(s.middleware.Security)
	r.Use(s.middleware.RateLimit)

	r.Get("/health", s.health.Handler)
	r.Handle("/metrics", s.metrics.Handler())

	// Audit records from any client instance.
	r.Post("/client/log", s.handleClientLog)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleHome)
		r.Post("/signin", s.handleSignIn)
		r.Post("/recommendations", s.handleRecommendations)
		r.Post("/recipes/view", s.handleViewRecipe)
		r.Post("/recipes/like", s.handleLikeRecipe)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *WebServer) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *WebServer) Start() error {
	s.logger.Info("Starting Web Frontend server",
		zap.String("address", s.server.Addr),
		zap.Int("service_client_id", s.serviceClientID),
	)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down Web Frontend server...")
	return s.server.Shutdown(ctx)
}

type signInForm struct {
	UserID string `validate:"max=256"`
}

type recommendationsForm struct {
	CalorieMax int `validate:"min=0"`
}

type recipeForm struct {
	Key string `validate:"max=512"`
}

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	s.renderPage(w, r, session.State)
}

func (s *WebServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	form := signInForm{UserID: r.PostFormValue("userId")}
	if err := s.validate.Struct(form); err != nil {
		session.State.SetError(msgInvalidUserID)
		s.redirectHome(w, r)
		return
	}

	s.service.SignIn(r.Context(), session.State, form.UserID)
	s.redirectHome(w, r)
}

func (s *WebServer) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	raw := strings.TrimSpace(r.PostFormValue("calorieMax"))
	calorieMax := 0
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			session.State.SetError(msgInvalidCalorieMax)
			s.redirectHome(w, r)
			return
		}
		calorieMax = n
	}

	if err := s.validate.Struct(recommendationsForm{CalorieMax: calorieMax}); err != nil {
		session.State.SetError(msgInvalidCalorieMax)
		s.redirectHome(w, r)
		return
	}

	s.service.FetchHealthyRecommendations(r.Context(), session.State, calorieMax)
	s.redirectHome(w, r)
}

func (s *WebServer) handleViewRecipe(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	summary, ok := s.findRecipe(r, session.State)
	if ok {
		s.service.OpenRecipeDetails(r.Context(), session.State, summary)
	}
	s.redirectHome(w, r)
}

func (s *WebServer) handleLikeRecipe(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	// An unknown key still reaches the service so a signed-out browser sees
	// the sign-in message.
	summary, _ := s.findRecipe(r, session.State)
	s.service.LikeRecipe(r.Context(), session.State, summary)
	s.redirectHome(w, r)
}

func (s *WebServer) findRecipe(r *http.Request, state *client.State) (recipe.Record, bool) {
	form := recipeForm{Key: r.PostFormValue("key")}
	if err := s.validate.Struct(form); err != nil {
		return nil, false
	}
	return s.service.Find(state, form.Key)
}

func (s *WebServer) session(r *http.Request) *Session {
	session, ok := SessionFrom(r.Context())
	if !ok {
		// Routes using this are always behind the session middleware.
		panic("webserver: no session in request context")
	}
	return session
}

func (s *WebServer) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pageData is the view model of the single client page.
type pageData struct {
	Title           string
	ServiceClientID int
	InstanceID      string
	UserID          string
	SignedIn        bool
	CalorieMax      int
	Loading         bool
	Cards           []recipeCard
	Detail          *recipeDetail
	Error           string
	Toast           string
}

type recipeCard struct {
	Key           string
	Title         string
	Category      string
	TotalCalories string
	Liked         bool
}

type recipeDetail struct {
	Title          string
	Loading        bool
	Breakdown      []recipe.BreakdownRow
	HasBreakdown   bool
	Ingredients    []string
	HasIngredients bool
	Steps          []string
	HasSteps       bool
}

func (s *WebServer) renderPage(w http.ResponseWriter, r *http.Request, state *client.State) {
	snap := state.Snapshot()

	instanceID, err := s.identity.InstanceID(r.Context())
	if err != nil {
		s.logger.Error("Failed to resolve instance id", zap.Error(err))
	}

	data := pageData{
		Title:           s.config.App.Name,
		ServiceClientID: s.serviceClientID,
		InstanceID:      instanceID,
		UserID:          snap.UserID,
		SignedIn:        snap.SignedIn,
		CalorieMax:      snap.CalorieMax,
		Loading:         snap.Loading,
		Error:           snap.Error,
		Toast:           snap.Toast,
	}

	for _, rec := range snap.Recipes {
		id := recipe.ResolveID(rec)
		card := recipeCard{
			Title: recipe.ResolveTitle(rec),
			Liked: id != nil && snap.LikedKeys[recipe.IDKey(id)],
		}
		if id != nil {
			card.Key = recipe.IDKey(id)
		}
		if category := rec["category"]; recipe.Truthy(category) {
			card.Category = recipe.FormatValue(category)
		}
		if isNumber(rec["totalCalories"]) {
			card.TotalCalories = recipe.FormatValue(rec["totalCalories"])
		}
		data.Cards = append(data.Cards, card)
	}

	if snap.Selected != nil {
		detail := &recipeDetail{
			Title:   recipe.ResolveTitle(snap.Selected),
			Loading: snap.DetailLoading,
		}
		if snap.Breakdown != nil {
			detail.Breakdown = snap.Breakdown.Rows()
			detail.HasBreakdown = true
		}
		detail.Ingredients, detail.HasIngredients = recipe.Ingredients(snap.Selected)
		detail.Steps, detail.HasSteps = recipe.Steps(snap.Selected)
		data.Detail = detail
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Failed to execute template", zap.Error(err))
	}
}

func isNumber(v any) bool {
	switch t := v.(type) {
	case json.Number:
		_, err := t.Float64()
		return err == nil
	case float64, float32, int, int64:
		return true
	default:
		return false
	}
}
