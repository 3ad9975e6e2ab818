package http

import (
	"net/http"

	applog "washlog/internal/log"
	"washlog/internal/pages"
)

type registerPage struct {
	Title      string
	Configured bool
	Form       pages.RegisterForm
	Outcome    *pages.RegisterOutcome
	// RefreshSeconds drives the meta refresh for non-htmx submissions.
	RefreshSeconds int
	RedirectTo     string
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	form, err := s.register.NewForm()
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Form token generation failed", applog.FieldError, err)
		InternalServerError("Could not prepare the form").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "register.html", registerPage{
		Title:      "Register Wash",
		Configured: s.cfg.Configured,
		Form:       form,
	})
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	req := pages.SubmitRequest{
		FormToken: r.PostForm.Get("token"),
		Note:      r.PostForm.Get("note"),
	}
	out := s.register.Submit(r.Context(), req)

	if isHTMX(r) {
		body, err := s.renderBytes("register-result", out)
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err)
			InternalServerError("Page could not be rendered").Write(w)
			return
		}
		resp := NewHTMXResponse().BodyHTML(body)
		if out.OK {
			resp.TriggerWashRegistered(out.RedirectTo, out.RedirectAfter, out.Count)
		}
		resp.Write(w)
		return
	}

	page := registerPage{
		Title:      "Register Wash",
		Configured: s.cfg.Configured,
		Form: pages.RegisterForm{
			Token:         req.FormToken,
			Configured:    s.cfg.Configured,
			SubmitEnabled: out.SubmitEnabled,
		},
		Outcome: &out,
	}
	if out.OK {
		page.RefreshSeconds = int(out.RedirectAfter.Seconds())
		page.RedirectTo = out.RedirectTo
	}
	s.render(w, r, http.StatusOK, "register.html", page)
}
