// Package pages holds the two page controllers: registration and dashboard.
// Controllers are plain Go values; internal/http only adapts them to HTTP.
package pages

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"washlog/internal/config"
)

const (
	// DefaultRedirectDelay is how long the success message stays before navigating away.
	DefaultRedirectDelay = 3 * time.Second
	// DefaultViewTTL bounds how long a dashboard view answers filter changes.
	DefaultViewTTL = 30 * time.Minute
	// DefaultMaxViews bounds the number of live dashboard views.
	DefaultMaxViews = 512
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Config is the page configuration injected into both controllers.
type Config struct {
	// Configured is false while the collaborator endpoint is still the placeholder.
	Configured    bool
	LandingPath   string
	RedirectDelay time.Duration
	ViewTTL       time.Duration
}

// ConfigFrom derives page configuration from the application config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Configured:    c.BackendConfigured(),
		LandingPath:   c.LandingPath,
		RedirectDelay: c.RedirectDelay,
		ViewTTL:       c.ViewTTL,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.LandingPath == "" {
		c.LandingPath = "/"
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = DefaultRedirectDelay
	}
	if c.ViewTTL <= 0 {
		c.ViewTTL = DefaultViewTTL
	}
	return c
}

func newID() (string, error) {
	return gonanoid.Generate(idAlphabet, 16)
}
