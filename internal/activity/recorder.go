// Package activity records bot activity entries. Entries are stored through
// the repository, mirrored to slog, and errors are forwarded as alerts.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/foxseedlab/gunkan/internal/webhook"
	"golang.org/x/sync/semaphore"
)

const (
	alertTimeout      = 10 * time.Second
	maxInflightAlerts = 8
)

// Recorder delivers alerts in the background; callers may hold locks
// while recording.
type Recorder struct {
	repo     repository.LogRepository
	alert    webhook.Sender
	clock    clock.Clock
	alerts   *semaphore.Weighted
	inflight sync.WaitGroup
}

func NewRecorder(repo repository.LogRepository, alert webhook.Sender, clk clock.Clock) *Recorder {
	return &Recorder{
		repo:   repo,
		alert:  alert,
		clock:  clk,
		alerts: semaphore.NewWeighted(maxInflightAlerts),
	}
}

// Wait blocks until every alert in flight was delivered or gave up.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

func (r *Recorder) Info(ctx context.Context, source repository.LogSource, message string, metadata map[string]any) {
	r.record(ctx, repository.LogLevelInfo, source, message, metadata)
}

func (r *Recorder) Warn(ctx context.Context, source repository.LogSource, message string, metadata map[string]any) {
	r.record(ctx, repository.LogLevelWarning, source, message, metadata)
}

func (r *Recorder) Error(ctx context.Context, source repository.LogSource, message string, metadata map[string]any) {
	r.record(ctx, repository.LogLevelError, source, message, metadata)
}

// record never fails the caller. A storage failure is only logged.
func (r *Recorder) record(ctx context.Context, level repository.LogLevel, source repository.LogSource, message string, metadata map[string]any) {
	entry := repository.LogEntry{
		Level:     level,
		Source:    source,
		Message:   message,
		Metadata:  metadata,
		Timestamp: r.clock.Now(),
	}

	attrs := []any{"source", string(source)}
	for k, v := range metadata {
		attrs = append(attrs, k, v)
	}
	switch level {
	case repository.LogLevelError:
		slog.Error(message, attrs...)
	case repository.LogLevelWarning:
		slog.Warn(message, attrs...)
	default:
		slog.Info(message, attrs...)
	}

	if err := r.repo.AppendLog(ctx, entry); err != nil {
		slog.Error("failed to persist activity log", "error", err, "source", string(source), "message", message)
	}

	if level != repository.LogLevelError || r.alert == nil {
		return
	}
	r.sendAlert(context.WithoutCancel(ctx), webhook.Alert{
		Level:     string(level),
		Source:    string(source),
		Message:   message,
		Metadata:  metadata,
		Timestamp: entry.Timestamp,
	})
}

func (r *Recorder) sendAlert(ctx context.Context, alert webhook.Alert) {
	if !r.alerts.TryAcquire(1) {
		slog.Warn("dropping alert, too many in flight", "source", alert.Source, "message", alert.Message)
		return
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.alerts.Release(1)
		alertCtx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()
		if err := r.alert.SendAlert(alertCtx, alert); err != nil {
			slog.Warn("failed to send alert", "error", err, "source", alert.Source)
		}
	}()
}
