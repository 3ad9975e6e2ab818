package pages

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"washlog/internal/core"
	applog "washlog/internal/log"
)

type fakeRegistrar struct {
	count   int
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	notes []string
}

func (f *fakeRegistrar) Register(ctx context.Context, note string) (int, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.notes = append(f.notes, note)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.count, f.err
}

type fakeReader struct {
	records []core.WashRecord
	err     error
	calls   atomic.Int32
}

func (f *fakeReader) History(ctx context.Context) ([]core.WashRecord, error) {
	f.calls.Add(1)
	return f.records, f.err
}

func testLogger() (*applog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	return applog.New(cfg), &buf
}

func sampleRecords() []core.WashRecord {
	return []core.WashRecord{
		{Date: "2024-05-01", Time: "10:00:00", Month: "2024-05", Note: "x"},
		{Date: "2024-06-01", Time: "11:30:00", Month: "2024-06", Note: ""},
	}
}
