package s3blob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// EntrySource is the ledger read surface the archiver needs.
type EntrySource interface {
	Entries() []domain.AlphaEntry
}

// defaultArchiveInterval spaces out snapshot uploads; one object per day is
// the intended cadence, the interval just bounds how stale a day's object
// can be.
const defaultArchiveInterval = time.Hour

// Archiver periodically uploads the full ledger snapshot to cold storage,
// one object per day. Within a day, later uploads overwrite earlier ones so
// the object always holds the day's latest state.
type Archiver struct {
	writer   domain.ArchiveWriter
	source   EntrySource
	interval time.Duration
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewArchiver creates an Archiver writing under the given key prefix
// (defaults to "alpha").
func NewArchiver(writer domain.ArchiveWriter, source EntrySource, interval time.Duration, prefix string, logger *slog.Logger) *Archiver {
	if interval <= 0 {
		interval = defaultArchiveInterval
	}
	if prefix == "" {
		prefix = "alpha"
	}
	return &Archiver{
		writer:   writer,
		source:   source,
		interval: interval,
		prefix:   prefix,
		logger:   logger.With(slog.String("component", "archiver")),
		now:      time.Now,
	}
}

// Run uploads a snapshot immediately and then on every interval tick until
// the context is cancelled. Upload failures are logged and retried on the
// next tick.
func (a *Archiver) Run(ctx context.Context) error {
	if err := a.Archive(ctx); err != nil {
		a.logger.Error("archive failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Archive(ctx); err != nil {
				a.logger.Error("archive failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Archive uploads the current ledger snapshot. An empty ledger is skipped.
func (a *Archiver) Archive(ctx context.Context) error {
	entries := a.source.Entries()
	if len(entries) == 0 {
		return nil
	}

	now := a.now().UTC()
	snapshot := map[string]any{
		"archivedAt": now.Format(time.RFC3339),
		"entries":    entries,
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot: %w", err)
	}

	key := a.Key(now)
	if err := a.writer.Put(ctx, key, payload); err != nil {
		return err
	}

	a.logger.Info("snapshot archived",
		slog.String("key", key),
		slog.Int("entries", len(entries)),
	)
	return nil
}

// Key returns the date-based object key for a snapshot taken at t.
func (a *Archiver) Key(t time.Time) string {
	return fmt.Sprintf("%s/%s.json", a.prefix, t.UTC().Format("2006/01/02"))
}
