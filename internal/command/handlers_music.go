package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/foxseedlab/gunkan/internal/metrics"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
)

type musicHandlers struct {
	repo          repository.StatsRepository
	queue         *queue.Engine
	media         media.Lookup
	recorder      *activity.Recorder
	clock         clock.Clock
	statsLoc      *time.Location
	lookupTimeout time.Duration
}

func (h *musicHandlers) play(ctx context.Context, req *Request) error {
	query := strings.TrimSpace(strings.Join(req.Args, " "))
	if query == "" {
		return invalid(usageMessage(req.Prefix, req.Name, req.Command.Usage))
	}
	if err := req.Reply(ctx, messageSearching); err != nil {
		slog.Warn("failed to send searching notice", "error", err, "chat_id", req.ChatID)
	}

	// The lookup holds no queue lock, so a slow provider only delays this
	// request.
	lookupCtx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
	track, err := h.media.Search(lookupCtx, query)
	cancel()
	if errors.Is(err, media.ErrNotFound) {
		h.recorder.Info(ctx, repository.LogSourceMusic, "Song not found", map[string]any{
			"query":   query,
			"chat_id": req.ChatID,
		})
		return req.Reply(ctx, messageSongNotFound)
	}
	if err != nil {
		metrics.MediaLookupFailures.Inc()
		h.recorder.Error(ctx, repository.LogSourceMusic, "Music play error", map[string]any{
			"query":   query,
			"chat_id": req.ChatID,
			"error":   err.Error(),
		})
		return req.Reply(ctx, messagePlayFailed)
	}

	item, err := h.queue.Enqueue(ctx, req.ChatID, track, req.SenderID)
	if err != nil {
		return fmt.Errorf("enqueue %q: %w", track.Title, err)
	}
	if err := h.repo.IncrementMusicRequests(ctx, h.clock.Now().In(h.statsLoc)); err != nil {
		slog.Error("failed to increment music requests", "error", err)
	}
	h.recorder.Info(ctx, repository.LogSourceMusic, "Song queued", map[string]any{
		"title":    item.Title,
		"url":      item.URL,
		"position": item.Position,
		"status":   string(item.Status),
		"chat_id":  req.ChatID,
		"sender":   req.SenderID,
	})

	label := trackLabel(item.Title, item.Artist)
	if item.Status == repository.QueueStatusPlaying {
		return req.Reply(ctx, fmt.Sprintf("▶️ Now playing: %s\n%s", label, item.URL))
	}
	return req.Reply(ctx, fmt.Sprintf("🎵 Added to queue (#%d): %s", item.Position, label))
}

func (h *musicHandlers) list(ctx context.Context, req *Request) error {
	items, err := h.queue.Queue(ctx, req.ChatID)
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}
	return req.Reply(ctx, buildQueueText(req.Prefix, items))
}

func (h *musicHandlers) skip(ctx context.Context, req *Request) error {
	adv, err := h.queue.Skip(ctx, req.ChatID)
	if err != nil {
		return fmt.Errorf("skip: %w", err)
	}
	if adv.Previous == nil {
		return req.Reply(ctx, messageNothingPlaying)
	}

	meta := map[string]any{
		"skipped": adv.Previous.Title,
		"chat_id": req.ChatID,
		"sender":  req.SenderID,
	}
	lines := []string{fmt.Sprintf("⏭️ Skipped: %s", trackLabel(adv.Previous.Title, adv.Previous.Artist))}
	if adv.Next != nil {
		meta["next"] = adv.Next.Title
		lines = append(lines, fmt.Sprintf("▶️ Now playing: %s\n%s", trackLabel(adv.Next.Title, adv.Next.Artist), adv.Next.URL))
	} else {
		lines = append(lines, messageQueueFinished)
	}
	h.recorder.Info(ctx, repository.LogSourceMusic, "Song skipped", meta)
	return req.Reply(ctx, strings.Join(lines, "\n"))
}
