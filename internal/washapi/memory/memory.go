package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"washlog/internal/core"
	"washlog/internal/washapi"
)

var _ washapi.Backend = (*Store)(nil)

// Store keeps washes in process memory. It stands in for the remote web app
// during local development.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items []core.WashRecord
}

func New(seed []core.WashRecord) *Store {
	return &Store{
		now:   time.Now,
		items: append([]core.WashRecord(nil), seed...),
	}
}

// NewFromFiles seeds the store from base/seed_history.txt when present.
// Each line is "YYYY-MM-DD,HH:MM:SS[,note]"; blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	return New(readSeed(filepath.Join(base, "seed_history.txt")))
}

// WithClock overrides the time source used for new registrations.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Register records a wash at the current time and returns the total count.
func (s *Store) Register(_ context.Context, note string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	s.items = append(s.items, core.WashRecord{
		Date:  t.Format("2006-01-02"),
		Time:  t.Format("15:04:05"),
		Month: core.MonthKey(t),
		Note:  note,
	})
	return len(s.items), nil
}

// History returns a copy of every recorded wash.
func (s *Store) History(_ context.Context) ([]core.WashRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.WashRecord{}, s.items...), nil
}

func readSeed(path string) []core.WashRecord {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.WashRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) < 2 {
			continue
		}
		date := strings.TrimSpace(parts[0])
		if len(date) < 7 {
			continue
		}
		rec := core.WashRecord{
			Date:  date,
			Time:  strings.TrimSpace(parts[1]),
			Month: date[:7],
		}
		if len(parts) == 3 {
			rec.Note = strings.TrimSpace(parts[2])
		}
		out = append(out, rec)
	}
	return out
}
