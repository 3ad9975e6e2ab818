package washapi

import (
	"context"

	"washlog/internal/core"
)

// Ports for the wash log collaborator.
type (
	// Registrar records a finished wash and returns the running count.
	Registrar interface {
		Register(ctx context.Context, note string) (count int, err error)
	}

	// HistoryReader returns every recorded wash.
	HistoryReader interface {
		History(ctx context.Context) ([]core.WashRecord, error)
	}

	// Backend is what a full collaborator provides.
	Backend interface {
		Registrar
		HistoryReader
	}
)
