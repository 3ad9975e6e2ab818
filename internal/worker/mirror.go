// Package worker mirrors washes stored in SQLite into the spreadsheet,
// driven by wash.registered events with a startup reconciliation pass.
package worker

import (
	"context"
	"fmt"
	"time"

	"washlog/internal/amqp"
	"washlog/internal/cache"
	"washlog/internal/core"
	applog "washlog/internal/log"
	"washlog/internal/washapi"
)

// RecordAppender appends an already timestamped wash.
type RecordAppender interface {
	AppendRecord(ctx context.Context, rec core.WashRecord) (int, error)
}

// Sink is the mirror target: it can be read back for reconciliation.
type Sink interface {
	RecordAppender
	washapi.HistoryReader
}

// MirrorWorker copies washes from the local store into a Sink.
type MirrorWorker struct {
	source washapi.HistoryReader
	sink   Sink
	seen   *cache.LRUCache[struct{}]
	logger *applog.Logger
}

// NewMirrorWorker creates a worker reading from source and writing to sink.
func NewMirrorWorker(source washapi.HistoryReader, sink Sink, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{
		source: source,
		sink:   sink,
		seen:   cache.NewLRUCache[struct{}](4096, 24*time.Hour),
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Seen exposes the delivered-event cache for periodic cleanup.
func (w *MirrorWorker) Seen() cache.Cleaner { return w.seen }

func recordKey(rec core.WashRecord) string {
	return rec.Date + "|" + rec.Time + "|" + rec.Note
}

// HandleWashRegistered appends the event's wash to the sink. A redelivered
// event that was already appended is acknowledged without a second row.
func (w *MirrorWorker) HandleWashRegistered(ctx context.Context, msg *amqp.WashRegisteredMessage) error {
	rec := msg.Record()
	key := recordKey(rec)
	if _, ok := w.seen.Get(key); ok {
		w.logger.DebugContext(ctx, "Skipping duplicate wash event", "date", rec.Date, "time", rec.Time)
		return nil
	}

	count, err := w.sink.AppendRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("append wash %s %s: %w", rec.Date, rec.Time, err)
	}
	w.seen.Set(key, struct{}{})

	w.logger.InfoContext(ctx, "Mirrored wash",
		"date", rec.Date,
		"time", rec.Time,
		applog.FieldCount, count)
	return nil
}

// Reconcile appends every source wash missing from the sink, in source order.
// It returns the number of rows appended.
func (w *MirrorWorker) Reconcile(ctx context.Context) (int, error) {
	local, err := w.source.History(ctx)
	if err != nil {
		return 0, fmt.Errorf("read local history: %w", err)
	}
	remote, err := w.sink.History(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirrored history: %w", err)
	}

	have := make(map[string]int, len(remote))
	for _, r := range remote {
		have[recordKey(r)]++
	}

	appended := 0
	for _, r := range local {
		key := recordKey(r)
		if have[key] > 0 {
			have[key]--
			continue
		}
		if _, err := w.sink.AppendRecord(ctx, r); err != nil {
			return appended, fmt.Errorf("append wash %s %s: %w", r.Date, r.Time, err)
		}
		w.seen.Set(key, struct{}{})
		appended++
	}

	if appended > 0 {
		w.logger.InfoContext(ctx, "Reconciled missing washes", applog.FieldCount, appended)
	}
	return appended, nil
}
