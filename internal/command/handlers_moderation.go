package command

import (
	"context"
	"errors"
	"strings"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/repository"
)

var errInvalidTarget = errors.New("invalid target")

type moderationHandlers struct {
	transport messaging.Transport
	recorder  *activity.Recorder
}

// participants builds kick, promote and demote. A transport failure is
// answered with failed and does not count as a handler fault.
func (h *moderationHandlers) participants(action messaging.ParticipantAction, done, failed string) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) error {
		if !req.IsGroup {
			return invalid(messageGroupOnly)
		}
		targets, err := resolveTargets(req)
		if err != nil || len(targets) == 0 {
			return invalid(usageMessage(req.Prefix, req.Name, req.Command.Usage))
		}

		if err := h.transport.UpdateParticipants(ctx, req.ChatID, targets, action); err != nil {
			h.recorder.Warn(ctx, repository.LogSourceCommands, "Participant update failed", map[string]any{
				"action":  string(action),
				"chat_id": req.ChatID,
				"targets": targets,
				"error":   err.Error(),
			})
			return req.Reply(ctx, failed)
		}

		h.recorder.Info(ctx, repository.LogSourceCommands, "Participants updated", map[string]any{
			"action":  string(action),
			"chat_id": req.ChatID,
			"targets": targets,
			"sender":  req.SenderID,
		})
		return req.Reply(ctx, done)
	})
}

// mute switches the group to announce mode. "/mute off" reopens it.
func (h *moderationHandlers) mute(ctx context.Context, req *Request) error {
	if !req.IsGroup {
		return invalid(messageGroupOnly)
	}
	announce := true
	if len(req.Args) > 0 {
		switch strings.ToLower(req.Args[0]) {
		case "off":
			announce = false
		case "on":
		default:
			return invalid(usageMessage(req.Prefix, req.Name, req.Command.Usage))
		}
	}

	if err := h.transport.SetGroupAnnounce(ctx, req.ChatID, announce); err != nil {
		h.recorder.Warn(ctx, repository.LogSourceCommands, "Group announce update failed", map[string]any{
			"chat_id":  req.ChatID,
			"announce": announce,
			"error":    err.Error(),
		})
		return req.Reply(ctx, messageMuteFailed)
	}

	h.recorder.Info(ctx, repository.LogSourceCommands, "Group announce mode changed", map[string]any{
		"chat_id":  req.ChatID,
		"announce": announce,
		"sender":   req.SenderID,
	})
	if announce {
		return req.Reply(ctx, messageMuteDone)
	}
	return req.Reply(ctx, messageUnmuteDone)
}

// resolveTargets prefers the message's mention list and falls back to
// "@15551234567" style arguments.
func resolveTargets(req *Request) ([]string, error) {
	if len(req.Mentions) > 0 {
		return append([]string(nil), req.Mentions...), nil
	}
	var targets []string
	for _, arg := range req.Args {
		t, err := parseTarget(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// parseTarget accepts "@digits", "digits", "+digits" or a full JID.
func parseTarget(arg string) (string, error) {
	t := strings.TrimPrefix(strings.TrimSpace(arg), "@")
	if strings.Contains(t, "@") {
		return t, nil
	}
	t = strings.TrimPrefix(t, "+")
	if t == "" {
		return "", errInvalidTarget
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return "", errInvalidTarget
		}
	}
	return t, nil
}
