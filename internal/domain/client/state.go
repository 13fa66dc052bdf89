// Package client models what one browser sees of the recipe client: who is
// signed in, which recommendations are loaded, the open recipe and the
// message bar.
package client

import (
	"sync"
	"time"

	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
)

// DefaultCalorieMax is the calorie ceiling offered before the user edits it.
const DefaultCalorieMax = 600

// ToastDuration is how long a confirmation notice stays visible.
const ToastDuration = 3 * time.Second

// State is the per-browser UI state. Handlers for one browser may run
// concurrently, so every access goes through the mutex.
type State struct {
	mu sync.Mutex

	userID     string
	signedIn   bool
	calorieMax int

	recipes   []recipe.Record
	selected  recipe.Record
	breakdown recipe.Breakdown

	loading       bool
	detailLoading bool

	errMsg     string
	toast      string
	toastUntil time.Time

	liked      map[string]struct{}
	likedOrder []any

	now func() time.Time
}

// NewState returns an empty, signed-out state.
func NewState() *State {
	return &State{
		calorieMax: DefaultCalorieMax,
		liked:      make(map[string]struct{}),
		now:        time.Now,
	}
}

// Snapshot is a consistent copy of State for rendering.
type Snapshot struct {
	UserID        string
	SignedIn      bool
	CalorieMax    int
	Recipes       []recipe.Record
	Selected      recipe.Record
	Breakdown     recipe.Breakdown
	Loading       bool
	DetailLoading bool
	Error         string
	Toast         string
	LikedKeys     map[string]bool
}

// Snapshot copies the state. An expired toast is dropped; an error hides the toast.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		UserID:        s.userID,
		SignedIn:      s.signedIn,
		CalorieMax:    s.calorieMax,
		Recipes:       append([]recipe.Record(nil), s.recipes...),
		Selected:      s.selected,
		Breakdown:     s.breakdown,
		Loading:       s.loading,
		DetailLoading: s.detailLoading,
		Error:         s.errMsg,
		LikedKeys:     make(map[string]bool, len(s.liked)),
	}
	if s.errMsg == "" && s.toast != "" && s.now().Before(s.toastUntil) {
		snap.Toast = s.toast
	}
	for k := range s.liked {
		snap.LikedKeys[k] = true
	}
	return snap
}

// User returns the current user id and whether it is signed in.
func (s *State) User() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.signedIn
}

// SignIn records a local sign-in and clears any error.
func (s *State) SignIn(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.signedIn = true
	s.errMsg = ""
}

// SetUserInput keeps what the user typed in the user id field without signing in.
func (s *State) SetUserInput(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// CalorieMax returns the current calorie ceiling.
func (s *State) CalorieMax() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calorieMax
}

// SetCalorieMax stores the calorie ceiling.
func (s *State) SetCalorieMax(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calorieMax = n
}

// Recipes returns the loaded recommendations.
func (s *State) Recipes() []recipe.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recipe.Record(nil), s.recipes...)
}

// SetRecipes replaces the loaded recommendations.
func (s *State) SetRecipes(list []recipe.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = list
}

// Selected returns the open recipe, or nil.
func (s *State) Selected() recipe.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSelected opens a recipe.
func (s *State) SetSelected(r recipe.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = r
}

// Breakdown returns the calorie breakdown of the open recipe, or nil.
func (s *State) Breakdown() recipe.Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakdown
}

// SetBreakdown stores the calorie breakdown.
func (s *State) SetBreakdown(b recipe.Breakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakdown = b
}

// ClearDetail closes the open recipe and its breakdown.
func (s *State) ClearDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.breakdown = nil
}

// SetLoading flags the recommendations request.
func (s *State) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// SetDetailLoading flags the detail requests.
func (s *State) SetDetailLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailLoading = v
}

// Error returns the current error message.
func (s *State) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// SetError replaces the current error message. An empty message clears it.
func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// Toast returns the notice text if it has not expired.
func (s *State) Toast() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Before(s.toastUntil) {
		return s.toast
	}
	return ""
}

// ShowToast shows a transient notice for ToastDuration.
func (s *State) ShowToast(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = msg
	s.toastUntil = s.now().Add(ToastDuration)
}

// AddLiked adds id to the session's liked set. It reports false if it was already there.
func (s *State) AddLiked(id any) bool {
	key := recipe.IDKey(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liked[key]; ok {
		return false
	}
	s.liked[key] = struct{}{}
	s.likedOrder = append(s.likedOrder, id)
	return true
}

// IsLiked reports whether id was liked in this session.
func (s *State) IsLiked(id any) bool {
	if id == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.liked[recipe.IDKey(id)]
	return ok
}

// LikedIDs returns liked ids in the order they were liked.
func (s *State) LikedIDs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.likedOrder...)
}

// SetClock replaces the time source. Tests use it to expire toasts.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
