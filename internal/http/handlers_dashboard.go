package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	applog "washlog/internal/log"
	"washlog/internal/pages"
)

type dashboardPage struct {
	Title    string
	Error    string
	View     *pages.DashboardView
	Selected string
	Body     pages.Rendered
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := dashboardPage{Title: "Dashboard"}

	view, err := s.dashboard.Load(ctx)
	if err != nil {
		var le *pages.LoadError
		if !errors.As(err, &le) {
			le = &pages.LoadError{Err: err}
		}
		page.Error = le.Error()
		s.render(w, r, http.StatusOK, "dashboard.html", page)
		return
	}

	// Handlers live as long as the view; they must not hold request state.
	view.OnChange(func(pages.Rendered) { s.filterChanges.Add(1) })

	page.View = view
	page.Selected = view.Selected()
	page.Body = view.Current()
	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func (s *Server) handleDashboardView(w http.ResponseWriter, r *http.Request) {
	view, ok := s.dashboard.View(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError("This dashboard has expired. Reload the page.").Write(w)
		return
	}

	out := view.Select(r.URL.Query().Get("month"))
	applog.FromContext(r.Context()).WithComponent(applog.ComponentDashboard).
		DebugContext(r.Context(), "Dashboard filter changed",
			applog.FieldViewID, view.ID,
			applog.FieldMonth, out.Filter,
			applog.FieldCount, out.Count)
	body, err := s.renderBytes("dashboard-body", out)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err)
		InternalServerError("Page could not be rendered").Write(w)
		return
	}
	NewHTMXResponse().Header("Cache-Control", "no-store").BodyHTML(body).Write(w)
}

// handleDashboardDiscard is called when the page unloads.
func (s *Server) handleDashboardDiscard(w http.ResponseWriter, r *http.Request) {
	s.dashboard.Discard(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
