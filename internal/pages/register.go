package pages

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"washlog/internal/cache"
	applog "washlog/internal/log"
	"washlog/internal/washapi"
)

// ErrSubmissionInProgress rejects a second submit of a form whose first
// submit has not finished.
var ErrSubmissionInProgress = errors.New("submission already in progress")

// completedTTL is how long a successful form token is remembered.
const completedTTL = 10 * time.Minute

// SubmitRequest is one registration form submission.
type SubmitRequest struct {
	FormToken string
	Note      string
}

// RegisterForm is the initial state of the registration page.
type RegisterForm struct {
	Token         string
	Configured    bool
	SubmitEnabled bool
}

// RegisterOutcome is everything the page needs to show after a submit.
type RegisterOutcome struct {
	OK            bool
	Message       string
	Count         int
	Kind          string // error classification, empty on success
	RedirectTo    string
	RedirectAfter time.Duration
	SubmitEnabled bool
	Loading       bool
}

// RegisterController handles registration form submissions.
type RegisterController struct {
	cfg    Config
	reg    washapi.Registrar
	logger *applog.Logger

	mu        sync.Mutex
	inFlight  map[string]struct{}
	completed *cache.LRUCache[int]
}

type RegisterOption func(*RegisterController)

func WithRegisterLogger(l *applog.Logger) RegisterOption {
	return func(c *RegisterController) { c.logger = l.WithComponent(applog.ComponentRegister) }
}

func NewRegisterController(cfg Config, reg washapi.Registrar, opts ...RegisterOption) *RegisterController {
	c := &RegisterController{
		cfg:       cfg.withDefaults(),
		reg:       reg,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentRegister),
		inFlight:  make(map[string]struct{}),
		completed: cache.NewLRUCache[int](DefaultMaxViews, completedTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Completed exposes the remembered form tokens for periodic cleanup.
func (c *RegisterController) Completed() cache.Cleaner { return c.completed }

// NewForm returns a fresh form with its own submit token.
func (c *RegisterController) NewForm() (RegisterForm, error) {
	token, err := newID()
	if err != nil {
		return RegisterForm{}, fmt.Errorf("generate form token: %w", err)
	}
	return RegisterForm{
		Token:         token,
		Configured:    c.cfg.Configured,
		SubmitEnabled: true,
	}, nil
}

// Submit registers one wash. At most one collaborator call is made and
// none at all when the endpoint is unconfigured or the form is busy.
func (c *RegisterController) Submit(ctx context.Context, req SubmitRequest) RegisterOutcome {
	if !c.cfg.Configured {
		return c.failure(ctx, req, washapi.ErrNotConfigured)
	}

	if req.FormToken != "" {
		if count, done := c.completed.Get(req.FormToken); done {
			return c.success(count)
		}
	}

	if !c.acquire(req.FormToken) {
		c.logger.WarnContext(ctx, "Rejected concurrent submission",
			applog.FieldFormToken, req.FormToken,
			applog.FieldErrorType, applog.ErrorTypeConflict)
		out := c.failure(ctx, req, ErrSubmissionInProgress)
		// The first submission still owns the form.
		out.SubmitEnabled = false
		out.Loading = true
		return out
	}
	defer c.release(req.FormToken)

	// The note is forwarded exactly as typed; templates escape it on display.
	count, err := c.reg.Register(ctx, req.Note)
	if err != nil {
		return c.failure(ctx, req, err)
	}

	if req.FormToken != "" {
		c.completed.Set(req.FormToken, count)
	}
	c.logger.InfoContext(ctx, "Wash registered",
		applog.FieldCount, count,
		applog.FieldNoteLength, len(req.Note))
	return c.success(count)
}

func (c *RegisterController) success(count int) RegisterOutcome {
	return RegisterOutcome{
		OK:            true,
		Message:       fmt.Sprintf("✅ Registered! Count: %d", count),
		Count:         count,
		RedirectTo:    c.cfg.LandingPath,
		RedirectAfter: c.cfg.RedirectDelay,
		Loading:       true,
	}
}

func (c *RegisterController) failure(ctx context.Context, req SubmitRequest, err error) RegisterOutcome {
	kind := washapi.Kind(err)
	if errors.Is(err, ErrSubmissionInProgress) {
		kind = applog.ErrorTypeConflict
	} else {
		c.logger.LogFailure(ctx, "Registration failed", applog.OpRegister, kind, err,
			applog.NewFields().With(applog.FieldFormToken, req.FormToken))
	}
	return RegisterOutcome{
		Message:       "❌ Error: " + reason(err),
		Kind:          kind,
		SubmitEnabled: true,
	}
}

// acquire takes the in-flight slot for token. Untokenised submits are not locked.
func (c *RegisterController) acquire(token string) bool {
	if token == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[token]; busy {
		return false
	}
	c.inFlight[token] = struct{}{}
	return true
}

func (c *RegisterController) release(token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	delete(c.inFlight, token)
	c.mu.Unlock()
}

// reason is the user-facing text for err.
func reason(err error) string {
	var se *washapi.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
