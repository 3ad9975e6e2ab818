package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "washlog/internal/log"
	"washlog/internal/washapi"
)

func newRegister(t *testing.T, configured bool, reg washapi.Registrar) *RegisterController {
	t.Helper()
	logger, _ := testLogger()
	return NewRegisterController(Config{Configured: configured, LandingPath: "/"}, reg, WithRegisterLogger(logger))
}

func TestSubmit_Success(t *testing.T) {
	reg := &fakeRegistrar{count: 42}
	c := newRegister(t, true, reg)

	out := c.Submit(context.Background(), SubmitRequest{FormToken: "t1", Note: "pots"})

	assert.True(t, out.OK)
	assert.Equal(t, "✅ Registered! Count: 42", out.Message)
	assert.Contains(t, out.Message, "42")
	assert.Equal(t, 42, out.Count)
	assert.Equal(t, "/", out.RedirectTo)
	assert.Equal(t, 3*time.Second, out.RedirectAfter)
	assert.False(t, out.SubmitEnabled)
	assert.True(t, out.Loading)
	assert.Equal(t, int32(1), reg.calls.Load())
	assert.Equal(t, []string{"pots"}, reg.notes)
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		kind    string
	}{
		{"status", &washapi.StatusError{Status: "error", Message: "Sheet locked"}, "❌ Error: Sheet locked", applog.ErrorTypeApplication},
		{"status without message", &washapi.StatusError{Status: "error"}, "❌ Error: Unknown error", applog.ErrorTypeApplication},
		{"transport", &washapi.TransportError{Op: "register", Err: errors.New("connection refused")}, "❌ Error: register: connection refused", applog.ErrorTypeNetwork},
		{"parse", &washapi.DecodeError{Op: "register", Err: errors.New("unexpected <")}, "❌ Error: register: invalid response: unexpected <", applog.ErrorTypeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRegister(t, true, &fakeRegistrar{err: tt.err})
			out := c.Submit(context.Background(), SubmitRequest{FormToken: "t", Note: ""})

			assert.False(t, out.OK)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, tt.kind, out.Kind)
			assert.True(t, out.SubmitEnabled)
			assert.False(t, out.Loading)
			assert.Empty(t, out.RedirectTo)
			assert.Zero(t, out.RedirectAfter)
		})
	}
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	reg := &fakeRegistrar{err: errors.New("boom")}
	c := newRegister(t, true, reg)

	out := c.Submit(context.Background(), SubmitRequest{FormToken: "t"})
	require.False(t, out.OK)

	reg.err = nil
	reg.count = 5
	out = c.Submit(context.Background(), SubmitRequest{FormToken: "t"})
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), reg.calls.Load())
}

func TestSubmit_NotConfigured(t *testing.T) {
	reg := &fakeRegistrar{count: 1}
	logger, buf := testLogger()
	c := NewRegisterController(Config{}, reg, WithRegisterLogger(logger))

	out := c.Submit(context.Background(), SubmitRequest{FormToken: "t", Note: "x"})

	assert.False(t, out.OK)
	assert.Equal(t, applog.ErrorTypeConfiguration, out.Kind)
	assert.Equal(t, "❌ Error: "+washapi.ErrNotConfigured.Error(), out.Message)
	assert.True(t, out.SubmitEnabled)
	assert.Zero(t, reg.calls.Load(), "no request may be issued without an endpoint")
	assert.Contains(t, buf.String(), applog.ErrorTypeConfiguration)
}

func TestSubmit_ConcurrentSameToken(t *testing.T) {
	reg := &fakeRegistrar{count: 3, started: make(chan struct{}), release: make(chan struct{})}
	c := newRegister(t, true, reg)

	first := make(chan RegisterOutcome)
	go func() { first <- c.Submit(context.Background(), SubmitRequest{FormToken: "same"}) }()
	<-reg.started

	second := c.Submit(context.Background(), SubmitRequest{FormToken: "same"})
	assert.False(t, second.OK)
	assert.Equal(t, applog.ErrorTypeConflict, second.Kind)
	assert.False(t, second.SubmitEnabled)
	assert.Contains(t, second.Message, ErrSubmissionInProgress.Error())

	close(reg.release)
	assert.True(t, (<-first).OK)
	assert.Equal(t, int32(1), reg.calls.Load())
}

func TestSubmit_CompletedTokenIsNotResent(t *testing.T) {
	reg := &fakeRegistrar{count: 9}
	c := newRegister(t, true, reg)

	a := c.Submit(context.Background(), SubmitRequest{FormToken: "done"})
	b := c.Submit(context.Background(), SubmitRequest{FormToken: "done"})

	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), reg.calls.Load())
}

func TestSubmit_SendsNoteVerbatim(t *testing.T) {
	notes := []string{
		"a<b and c>d",
		"use <soap> brand",
		"  spaced  ",
		"pots & pans",
		"",
	}
	reg := &fakeRegistrar{count: 1}
	c := newRegister(t, true, reg)

	for _, n := range notes {
		c.Submit(context.Background(), SubmitRequest{Note: n})
	}

	assert.Equal(t, notes, reg.notes)
}

func TestNewForm(t *testing.T) {
	c := newRegister(t, true, &fakeRegistrar{})
	a, err := c.NewForm()
	require.NoError(t, err)
	b, err := c.NewForm()
	require.NoError(t, err)

	assert.Len(t, a.Token, 16)
	assert.NotEqual(t, a.Token, b.Token)
	assert.True(t, a.SubmitEnabled)
	assert.True(t, a.Configured)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "/", cfg.LandingPath)
	assert.Equal(t, DefaultRedirectDelay, cfg.RedirectDelay)
	assert.Equal(t, DefaultViewTTL, cfg.ViewTTL)
}
