// Package bot wires transport events to the session, the command
// dispatcher and group bookkeeping, and exposes the operations available
// to an outer caller layer.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/foxseedlab/gunkan/internal/session"
)

var (
	ErrEmptyBroadcast = errors.New("broadcast message is required")
	ErrNotConnected   = errors.New("bot is not connected")
)

// BroadcastResult lists per-group outcomes. A failed group does not stop
// the others.
type BroadcastResult struct {
	Sent   []string
	Failed map[string]error
}

type Service struct {
	repo      repository.Repository
	transport messaging.Transport
	session   *session.Manager
	queue     *queue.Engine
	recorder  *activity.Recorder
	clock     clock.Clock
	statsLoc  *time.Location
}

func NewService(repo repository.Repository, transport messaging.Transport, sess *session.Manager, q *queue.Engine, recorder *activity.Recorder, clk clock.Clock, statsLoc *time.Location) *Service {
	if statsLoc == nil {
		statsLoc = time.UTC
	}
	return &Service{
		repo:      repo,
		transport: transport,
		session:   sess,
		queue:     q,
		recorder:  recorder,
		clock:     clk,
		statsLoc:  statsLoc,
	}
}

func (s *Service) Status() session.Snapshot {
	return s.session.Status()
}

func (s *Service) StartPairing(ctx context.Context, phone string) (string, error) {
	return s.session.StartPairing(ctx, phone)
}

func (s *Service) VerifyPairing(code string) bool {
	return s.session.VerifyPairing(code)
}

func (s *Service) Disconnect(ctx context.Context) error {
	return s.session.Disconnect(ctx)
}

// Broadcast sends text to groupIDs, or to every known group when none are
// given.
func (s *Service) Broadcast(ctx context.Context, text string, groupIDs []string) (BroadcastResult, error) {
	if strings.TrimSpace(text) == "" {
		return BroadcastResult{}, ErrEmptyBroadcast
	}
	if s.session.Status().Status != repository.SessionStatusConnected {
		return BroadcastResult{}, ErrNotConnected
	}
	if len(groupIDs) == 0 {
		groups, err := s.repo.ListGroups(ctx)
		if err != nil {
			return BroadcastResult{}, fmt.Errorf("list groups: %w", err)
		}
		for _, g := range groups {
			groupIDs = append(groupIDs, g.ID)
		}
	}

	res := BroadcastResult{Failed: make(map[string]error)}
	for _, id := range groupIDs {
		if err := s.transport.SendMessage(ctx, id, text); err != nil {
			res.Failed[id] = err
			s.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Broadcast to group failed", map[string]any{
				"group_id": id,
				"error":    err.Error(),
			})
			continue
		}
		res.Sent = append(res.Sent, id)
	}
	s.recorder.Info(ctx, repository.LogSourceSystem, "Broadcast sent", map[string]any{
		"sent":   len(res.Sent),
		"failed": len(res.Failed),
	})
	return res, nil
}

func (s *Service) Queue(ctx context.Context, groupID string) ([]repository.QueueItem, error) {
	return s.queue.Queue(ctx, groupID)
}

func (s *Service) ClearQueue(ctx context.Context, groupID string) (int, error) {
	n, err := s.queue.Clear(ctx, groupID)
	if err != nil {
		return 0, err
	}
	s.recorder.Info(ctx, repository.LogSourceMusic, "Queue cleared", map[string]any{
		"group_id": groupID,
		"removed":  n,
	})
	return n, nil
}

func (s *Service) Commands(ctx context.Context, category repository.CommandCategory) ([]repository.Command, error) {
	return s.repo.ListCommands(ctx, repository.CommandFilter{Category: category})
}

func (s *Service) SetCommandEnabled(ctx context.Context, name string, enabled bool) (*repository.Command, error) {
	c, err := s.repo.UpdateCommand(ctx, name, repository.CommandPatch{Enabled: &enabled})
	if err != nil {
		return nil, err
	}
	s.recorder.Info(ctx, repository.LogSourceSystem, "Command updated", map[string]any{
		"command": name,
		"enabled": enabled,
	})
	return c, nil
}

func (s *Service) SetCommandAdminOnly(ctx context.Context, name string, adminOnly bool) (*repository.Command, error) {
	return s.repo.UpdateCommand(ctx, name, repository.CommandPatch{AdminOnly: &adminOnly})
}

func (s *Service) Logs(ctx context.Context, filter repository.LogFilter) ([]repository.LogEntry, error) {
	return s.repo.ListLogs(ctx, filter)
}

func (s *Service) ClearLogs(ctx context.Context) error {
	return s.repo.ClearLogs(ctx)
}

func (s *Service) Groups(ctx context.Context) ([]repository.Group, error) {
	return s.repo.ListGroups(ctx)
}

func (s *Service) UpdateGroupSettings(ctx context.Context, id string, patch repository.GroupSettingsPatch) (*repository.Group, error) {
	return s.repo.UpdateGroupSettings(ctx, id, patch)
}

// DeleteGroup forgets a group and its playback queue. A later sync adds it
// back while the bot is still a member.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	if _, err := s.queue.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	s.recorder.Info(ctx, repository.LogSourceSystem, "Group removed", map[string]any{"group_id": id})
	return nil
}

// Stats returns today's counters in the stats time zone.
func (s *Service) Stats(ctx context.Context) (repository.Stats, error) {
	return s.repo.GetStats(ctx, s.clock.Now().In(s.statsLoc))
}

// SyncGroups refreshes every group the bot participates in. It runs after
// each successful connection open.
func (s *Service) SyncGroups(ctx context.Context) {
	all, err := s.transport.FetchAllGroupsMetadata(ctx)
	if err != nil {
		s.recorder.Error(ctx, repository.LogSourceSystem, "Failed to update groups list", map[string]any{"error": err.Error()})
		return
	}
	synced := 0
	for id, meta := range all {
		if err := s.repo.SyncGroup(ctx, repository.SyncGroupInput{
			ID:          id,
			Name:        meta.Name,
			MemberCount: meta.MemberCount,
			BotIsAdmin:  meta.BotIsAdmin,
		}); err != nil {
			slog.Error("failed to sync group", "error", err, "group_id", id)
			continue
		}
		synced++
	}
	if err := s.repo.SetActiveGroups(ctx, s.clock.Now().In(s.statsLoc), synced); err != nil {
		slog.Error("failed to store active group count", "error", err)
	}
	s.recorder.Info(ctx, repository.LogSourceSystem, fmt.Sprintf("Updated %d groups", synced), map[string]any{"groups": synced})
}

// HandleParticipants greets joining members and says goodbye to leaving
// ones when the group has the respective text configured.
func (s *Service) HandleParticipants(ctx context.Context, u messaging.ParticipantsUpdate) {
	var text, message string
	switch u.Action {
	case messaging.ParticipantAdd:
		message = "New member joined group"
	case messaging.ParticipantRemove:
		message = "Member left group"
	default:
		return
	}

	g, err := s.repo.GetGroup(ctx, u.GroupID)
	if err != nil {
		slog.Error("failed to load group", "error", err, "group_id", u.GroupID)
	} else if g != nil {
		if u.Action == messaging.ParticipantAdd {
			text = g.WelcomeMessage
		} else {
			text = g.FarewellMessage
		}
	}

	if text != "" {
		if err := s.transport.SendMessage(ctx, u.GroupID, text); err != nil {
			s.recorder.Warn(ctx, repository.LogSourceWhatsApp, "Failed to send group greeting", map[string]any{
				"group_id": u.GroupID,
				"error":    err.Error(),
			})
		}
	}
	s.recorder.Info(ctx, repository.LogSourceWhatsApp, message, map[string]any{
		"group_id":     u.GroupID,
		"participants": u.Participants,
	})
}
