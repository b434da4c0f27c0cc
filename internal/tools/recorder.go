package tools

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bobarin/voicebridge/internal/models"
)

// CallRecorder persists call log entries. *db.DB and *queue.Queue implement it.
type CallRecorder interface {
	RecordCall(ctx context.Context, call *models.ToolCall) error
}

// MultiRecorder fans a call out to every recorder and returns the first error.
type MultiRecorder []CallRecorder

func (m MultiRecorder) RecordCall(ctx context.Context, call *models.ToolCall) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, rec := range m {
		rec := rec
		g.Go(func() error {
			return rec.RecordCall(ctx, call)
		})
	}
	return g.Wait()
}
