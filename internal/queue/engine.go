// Package queue keeps the per-group playback queues. At most one item per
// group is playing; positions are 1-based and follow insertion order.
package queue

import (
	"context"
	"fmt"

	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/foxseedlab/gunkan/internal/metrics"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/moby/locker"
)

type State string

const (
	// StateNone means the group has no items, either never or after Clear.
	StateNone    State = "none"
	StatePlaying State = "playing"
	// StateIdle means items exist but all of them finished or were skipped.
	StateIdle State = "idle"
)

// Advance describes what Skip or Complete changed. Both fields are nil when
// nothing was playing.
type Advance struct {
	Previous *repository.QueueItem
	Next     *repository.QueueItem
}

type Engine struct {
	repo  repository.QueueRepository
	locks *locker.Locker
}

func NewEngine(repo repository.QueueRepository) *Engine {
	return &Engine{repo: repo, locks: locker.New()}
}

// Enqueue appends track to the group's queue. The new item starts playing
// when the group has nothing playing and nothing waiting.
func (e *Engine) Enqueue(ctx context.Context, groupID string, track media.Track, requestedBy string) (*repository.QueueItem, error) {
	e.locks.Lock(groupID)
	defer e.locks.Unlock(groupID)

	items, err := e.repo.ListQueue(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	maxPosition := 0
	busy := false
	for _, it := range items {
		if it.Position > maxPosition {
			maxPosition = it.Position
		}
		if it.Status == repository.QueueStatusPlaying || it.Status == repository.QueueStatusQueued {
			busy = true
		}
	}
	status := repository.QueueStatusQueued
	if !busy {
		status = repository.QueueStatusPlaying
	}

	item, err := e.repo.InsertQueueItem(ctx, repository.QueueItem{
		GroupID:     groupID,
		Title:       track.Title,
		Artist:      track.Artist,
		URL:         track.URL,
		RequestedBy: requestedBy,
		Position:    maxPosition + 1,
		Status:      status,
	})
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	metrics.QueueEnqueued.Inc()
	return item, nil
}

// Skip marks the playing item skipped and promotes the earliest queued one.
// Without a playing item it changes nothing.
func (e *Engine) Skip(ctx context.Context, groupID string) (Advance, error) {
	return e.advance(ctx, groupID, repository.QueueStatusSkipped)
}

// Complete is Skip for a track that finished on its own.
func (e *Engine) Complete(ctx context.Context, groupID string) (Advance, error) {
	return e.advance(ctx, groupID, repository.QueueStatusCompleted)
}

func (e *Engine) advance(ctx context.Context, groupID string, finished repository.QueueStatus) (Advance, error) {
	e.locks.Lock(groupID)
	defer e.locks.Unlock(groupID)

	items, err := e.repo.ListQueue(ctx, groupID)
	if err != nil {
		return Advance{}, fmt.Errorf("list queue: %w", err)
	}
	var playing, next *repository.QueueItem
	for i := range items {
		switch items[i].Status {
		case repository.QueueStatusPlaying:
			if playing == nil {
				playing = &items[i]
			}
		case repository.QueueStatusQueued:
			if next == nil {
				next = &items[i]
			}
		}
	}
	if playing == nil {
		return Advance{}, nil
	}

	if err := e.repo.UpdateQueueItemStatus(ctx, playing.ID, finished); err != nil {
		return Advance{}, fmt.Errorf("mark %s: %w", finished, err)
	}
	playing.Status = finished
	res := Advance{Previous: playing}
	if next == nil {
		return res, nil
	}
	if err := e.repo.UpdateQueueItemStatus(ctx, next.ID, repository.QueueStatusPlaying); err != nil {
		return res, fmt.Errorf("promote next item: %w", err)
	}
	next.Status = repository.QueueStatusPlaying
	res.Next = next
	return res, nil
}

// Clear removes every item of the group, including the playing one.
func (e *Engine) Clear(ctx context.Context, groupID string) (int, error) {
	e.locks.Lock(groupID)
	defer e.locks.Unlock(groupID)
	return e.repo.ClearQueue(ctx, groupID)
}

// Queue returns the group's items ordered by position.
func (e *Engine) Queue(ctx context.Context, groupID string) ([]repository.QueueItem, error) {
	e.locks.Lock(groupID)
	defer e.locks.Unlock(groupID)
	return e.repo.ListQueue(ctx, groupID)
}

func (e *Engine) State(ctx context.Context, groupID string) (State, error) {
	items, err := e.Queue(ctx, groupID)
	if err != nil {
		return "", err
	}
	return StateOf(items), nil
}

func StateOf(items []repository.QueueItem) State {
	if len(items) == 0 {
		return StateNone
	}
	for _, it := range items {
		if it.Status == repository.QueueStatusPlaying {
			return StatePlaying
		}
	}
	return StateIdle
}
