package pages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"washlog/internal/cache"
	"washlog/internal/core"
	applog "washlog/internal/log"
	"washlog/internal/washapi"
)

// LoadError is a failed dashboard load. Its message is what the page shows.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "Failed to load data: " + reason(e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Kind classifies the underlying failure.
func (e *LoadError) Kind() string { return washapi.Kind(e.Err) }

// RenderedItem is one history list entry.
type RenderedItem struct {
	Display string
	Note    string
}

// Rendered is the dashboard content for one filter value.
type Rendered struct {
	Filter string
	Count  int
	Cost   string
	Items  []RenderedItem
}

// DashboardView is one loaded dashboard: the fetched records plus the
// current filter. Filter changes are served from it without refetching.
type DashboardView struct {
	ID        string
	CreatedAt time.Time
	Months    []string
	Options   []core.MonthOption

	records []core.WashRecord

	mu       sync.Mutex
	selected string
	handlers map[int]func(Rendered)
	nextID   int
}

func newDashboardView(id string, records []core.WashRecord, now time.Time) *DashboardView {
	months := core.DistinctMonths(records)
	return &DashboardView{
		ID:        id,
		CreatedAt: now,
		Months:    months,
		Options:   core.MonthOptions(months),
		records:   append([]core.WashRecord(nil), records...),
		selected:  core.DefaultMonth(months, now),
		handlers:  make(map[int]func(Rendered)),
	}
}

// Selected returns the current filter; empty when no month could be chosen.
func (v *DashboardView) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Len is the number of fetched records.
func (v *DashboardView) Len() int { return len(v.records) }

// Render computes the content for filter without changing the view. An
// empty filter behaves like the first option, "all".
func (v *DashboardView) Render(filter string) Rendered {
	if filter == "" {
		filter = core.AllMonths
	}
	subset := core.Filter(v.records, filter)
	stats := core.Summarize(subset)

	items := make([]RenderedItem, len(subset))
	for i, r := range subset {
		items[i] = RenderedItem{Display: r.Display(), Note: r.Note}
	}
	return Rendered{
		Filter: filter,
		Count:  stats.Count,
		Cost:   core.FormatYen(stats.Cost),
		Items:  items,
	}
}

// Current renders the selected filter.
func (v *DashboardView) Current() Rendered {
	return v.Render(v.Selected())
}

// Select changes the filter, renders it and notifies change handlers.
func (v *DashboardView) Select(filter string) Rendered {
	v.mu.Lock()
	v.selected = filter
	handlers := make([]func(Rendered), 0, len(v.handlers))
	for _, h := range v.handlers {
		handlers = append(handlers, h)
	}
	v.mu.Unlock()

	out := v.Render(filter)
	for _, h := range handlers {
		h(out)
	}
	return out
}

// OnChange registers fn to run after every Select. The returned function
// unsubscribes it and is safe to call more than once.
func (v *DashboardView) OnChange(fn func(Rendered)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.handlers[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.handlers, id)
		v.mu.Unlock()
	}
}

// Handlers is the number of registered change handlers.
func (v *DashboardView) Handlers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.handlers)
}

// Close detaches every change handler.
func (v *DashboardView) Close() {
	v.mu.Lock()
	clear(v.handlers)
	v.mu.Unlock()
}

// DashboardController loads dashboards and keeps their views for filter changes.
type DashboardController struct {
	cfg    Config
	reader washapi.HistoryReader
	views  *cache.LRUCache[*DashboardView]
	logger *applog.Logger
	now    func() time.Time
}

type DashboardOption func(*DashboardController)

func WithDashboardLogger(l *applog.Logger) DashboardOption {
	return func(c *DashboardController) { c.logger = l.WithComponent(applog.ComponentDashboard) }
}

// WithClock sets the time source used to pick the default month.
func WithClock(now func() time.Time) DashboardOption {
	return func(c *DashboardController) { c.now = now }
}

// WithMaxViews bounds the number of live views.
func WithMaxViews(n int) DashboardOption {
	return func(c *DashboardController) {
		c.views = cache.NewLRUCache[*DashboardView](n, c.cfg.ViewTTL)
	}
}

func NewDashboardController(cfg Config, reader washapi.HistoryReader, opts ...DashboardOption) *DashboardController {
	cfg = cfg.withDefaults()
	c := &DashboardController{
		cfg:    cfg,
		reader: reader,
		views:  cache.NewLRUCache[*DashboardView](DefaultMaxViews, cfg.ViewTTL),
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentDashboard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.views.WithClock(func() time.Time { return c.now() })
	c.views.OnEvict(func(_ string, v *DashboardView) { v.Close() })
	return c
}

// Views exposes the view store for periodic cleanup.
func (c *DashboardController) Views() cache.Cleaner { return c.views }

// Load fetches the history once and returns a new view with the default
// month selected. Failures are returned as *LoadError.
func (c *DashboardController) Load(ctx context.Context) (*DashboardView, error) {
	if !c.cfg.Configured {
		return nil, c.fail(ctx, washapi.ErrNotConfigured)
	}

	records, err := c.reader.History(ctx)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	id, err := newID()
	if err != nil {
		return nil, c.fail(ctx, fmt.Errorf("generate view id: %w", err))
	}

	view := newDashboardView(id, records, c.now())
	c.views.Set(id, view)

	c.logger.InfoContext(ctx, "Dashboard loaded",
		applog.FieldViewID, id,
		applog.FieldRecords, len(records),
		applog.FieldMonth, view.Selected())
	return view, nil
}

// View returns a live view by id.
func (c *DashboardController) View(id string) (*DashboardView, bool) {
	return c.views.Get(id)
}

// Discard drops a view and detaches its handlers.
func (c *DashboardController) Discard(id string) {
	c.views.Delete(id)
}

func (c *DashboardController) fail(ctx context.Context, err error) error {
	le := &LoadError{Err: err}
	c.logger.LogFailure(ctx, "Dashboard load failed", applog.OpHistory, le.Kind(), err, nil)
	return le
}
