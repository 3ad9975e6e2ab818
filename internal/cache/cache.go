package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup of registered caches on a gocron scheduler.
type Manager struct {
	mu        sync.Mutex
	caches    map[string]Cleaner
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		caches:    make(map[string]Cleaner),
		scheduler: gocron.NewScheduler(time.Local),
		logger:    logger,
	}
}

// Register adds a cache to the manager for cleanup under name.
func (m *Manager) Register(name string, cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = cache
}

// CleanAll sweeps every registered cache once and returns the removed count.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			m.logger.Debug("Cleaned expired cache entries", "cache", name, "removed", n)
		}
		total += n
	}
	return total
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", interval)
	}
	if _, err := m.scheduler.Every(interval).WaitForSchedule().Do(func() { m.CleanAll() }); err != nil {
		return fmt.Errorf("schedule cache cleanup: %w", err)
	}
	m.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler; running jobs are allowed to finish.
func (m *Manager) Stop() {
	m.scheduler.Stop()
}
