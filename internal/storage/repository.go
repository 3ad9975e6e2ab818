package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"washlog/internal/core"
	"washlog/internal/washapi"
)

var _ washapi.Backend = (*SQLiteRepository)(nil)

// publishTimeout bounds one background event publication.
const publishTimeout = 15 * time.Second

// EventPublisher is notified after each stored wash.
type EventPublisher interface {
	PublishWashRegistered(ctx context.Context, rec core.WashRecord, count int) error
}

// SQLiteRepository stores washes in a local SQLite database.
type SQLiteRepository struct {
	db        *sql.DB
	now       func() time.Time
	publisher EventPublisher

	// publishing tracks background publications so Close can wait for them.
	publishing sync.WaitGroup
}

// Option configures a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithPublisher publishes an event after every successful Register. The
// event is sent in the background once the wash is committed; failures are
// logged and never delay or fail the registration.
func WithPublisher(p EventPublisher) Option {
	return func(r *SQLiteRepository) { r.publisher = p }
}

// WithClock overrides the time source used to stamp new washes.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// Close waits for pending event publications, then closes the database.
func (r *SQLiteRepository) Close() error {
	r.publishing.Wait()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Register stores a wash stamped with the current time and returns the new total.
func (r *SQLiteRepository) Register(ctx context.Context, note string) (int, error) {
	t := r.now()
	rec := core.WashRecord{
		Date:  t.Format("2006-01-02"),
		Time:  t.Format("15:04:05"),
		Month: core.MonthKey(t),
		Note:  note,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := squirrel.
		Insert("washes").
		Columns("wash_date", "wash_time", "month", "note").
		Values(rec.Date, rec.Time, rec.Month, rec.Note).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert wash: %w", err)
	}

	query, args, err = squirrel.Select("COUNT(*)").From("washes").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count washes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Wash saved to SQLite",
		"date", rec.Date,
		"time", rec.Time,
		"count", count)

	if r.publisher != nil {
		r.publishAsync(context.WithoutCancel(ctx), rec, count)
	}

	return count, nil
}

func (r *SQLiteRepository) publishAsync(ctx context.Context, rec core.WashRecord, count int) {
	r.publishing.Add(1)
	go func() {
		defer r.publishing.Done()
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := r.publisher.PublishWashRegistered(ctx, rec, count); err != nil {
			slog.WarnContext(ctx, "Failed to publish wash registered event",
				"error", err,
				"date", rec.Date,
				"time", rec.Time)
		}
	}()
}

// History returns every stored wash in insertion order.
func (r *SQLiteRepository) History(ctx context.Context) ([]core.WashRecord, error) {
	return r.list(ctx, nil)
}

// ListByMonth returns the washes of a single YYYY-MM month.
func (r *SQLiteRepository) ListByMonth(ctx context.Context, month string) ([]core.WashRecord, error) {
	return r.list(ctx, squirrel.Eq{"month": month})
}

func (r *SQLiteRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]core.WashRecord, error) {
	qb := squirrel.
		Select("wash_date", "wash_time", "month", "note").
		From("washes").
		OrderBy("id")
	if where != nil {
		qb = qb.Where(where)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query washes: %w", err)
	}
	defer rows.Close()

	out := []core.WashRecord{}
	for rows.Next() {
		var rec core.WashRecord
		if err := rows.Scan(&rec.Date, &rec.Time, &rec.Month, &rec.Note); err != nil {
			return nil, fmt.Errorf("scan wash: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate washes: %w", err)
	}
	return out, nil
}
