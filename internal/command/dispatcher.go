package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/metrics"
	"github.com/foxseedlab/gunkan/internal/repository"
)

// Dispatcher resolves invocations against the stored command table and the
// handler registry, gates admin-only commands and counts usage.
type Dispatcher struct {
	prefix    string
	repo      repository.Repository
	registry  *Registry
	transport messaging.Transport
	recorder  *activity.Recorder
	clock     clock.Clock
	statsLoc  *time.Location
}

func NewDispatcher(prefix string, repo repository.Repository, registry *Registry, transport messaging.Transport, recorder *activity.Recorder, clk clock.Clock, statsLoc *time.Location) *Dispatcher {
	if statsLoc == nil {
		statsLoc = time.UTC
	}
	return &Dispatcher{
		prefix:    prefix,
		repo:      repo,
		registry:  registry,
		transport: transport,
		recorder:  recorder,
		clock:     clk,
		statsLoc:  statsLoc,
	}
}

// HandleMessage parses an inbound message and dispatches it when it is a
// command. Messages sent by the bot itself are ignored.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg messaging.InboundMessage) {
	if msg.FromMe {
		return
	}
	inv, ok := Parse(d.prefix, msg.Text)
	if !ok {
		return
	}
	d.Dispatch(ctx, inv, Origin{
		ChatID:   msg.Chat,
		SenderID: msg.Sender,
		IsGroup:  msg.IsGroup,
		Mentions: msg.Mentions,
	})
}

// Dispatch never returns an error; every failure ends in a reply and a
// log entry.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, origin Origin) {
	cmd, err := d.repo.GetCommand(ctx, inv.Name)
	if err != nil {
		d.recorder.Error(ctx, repository.LogSourceCommands, "Command lookup failed", map[string]any{
			"command": inv.Name,
			"error":   err.Error(),
		})
		d.reply(ctx, origin.ChatID, messageCommandFailed)
		return
	}
	h, registered := d.registry.Lookup(inv.Name)
	if cmd == nil || !cmd.Enabled || !registered {
		metrics.CommandsDispatched.WithLabelValues("unknown", metrics.OutcomeUnknown).Inc()
		d.reply(ctx, origin.ChatID, unknownCommandMessage(d.prefix))
		return
	}

	d.recorder.Info(ctx, repository.LogSourceCommands, "Command executed", map[string]any{
		"command": inv.Name,
		"sender":  origin.SenderID,
		"chat_id": origin.ChatID,
	})
	defer d.countUsage(ctx)

	if cmd.AdminOnly {
		if outcome, ok := d.checkAdmin(ctx, origin); !ok {
			metrics.CommandsDispatched.WithLabelValues(inv.Name, outcome).Inc()
			return
		}
	}

	req := &Request{
		Invocation: inv,
		Origin:     origin,
		Command:    *cmd,
		Prefix:     d.prefix,
		reply: func(ctx context.Context, text string) error {
			return d.transport.SendMessage(ctx, origin.ChatID, text)
		},
	}
	outcome := d.run(ctx, h, req)
	metrics.CommandsDispatched.WithLabelValues(inv.Name, outcome).Inc()
}

// checkAdmin asks the transport for the bot's role in the chat right now
// and refreshes the stored flag.
func (d *Dispatcher) checkAdmin(ctx context.Context, origin Origin) (string, bool) {
	if !origin.IsGroup {
		d.reply(ctx, origin.ChatID, messageGroupOnly)
		return metrics.OutcomeInvalid, false
	}
	meta, err := d.transport.FetchGroupMetadata(ctx, origin.ChatID)
	if err != nil {
		d.recorder.Warn(ctx, repository.LogSourceCommands, "Admin status check failed", map[string]any{
			"chat_id": origin.ChatID,
			"error":   err.Error(),
		})
		d.reply(ctx, origin.ChatID, messageAdminCheckFailed)
		return metrics.OutcomeFailed, false
	}
	if err := d.repo.SetBotIsAdmin(ctx, origin.ChatID, meta.BotIsAdmin); err != nil {
		slog.Warn("failed to store bot admin flag", "error", err, "chat_id", origin.ChatID)
	}
	if !meta.BotIsAdmin {
		d.reply(ctx, origin.ChatID, messageBotNotAdmin)
		return metrics.OutcomeDenied, false
	}
	return "", true
}

func (d *Dispatcher) run(ctx context.Context, h Handler, req *Request) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command handler panicked", "command", req.Name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			d.recorder.Error(ctx, repository.LogSourceCommands, "Command error", map[string]any{
				"command": req.Name,
				"error":   fmt.Sprintf("panic: %v", r),
			})
			d.reply(ctx, req.ChatID, messageCommandFailed)
			outcome = metrics.OutcomePanicked
		}
	}()

	err := h.Handle(ctx, req)
	if err == nil {
		return metrics.OutcomeOK
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		d.reply(ctx, req.ChatID, verr.Message)
		return metrics.OutcomeInvalid
	}
	d.recorder.Error(ctx, repository.LogSourceCommands, "Command error", map[string]any{
		"command": req.Name,
		"error":   err.Error(),
	})
	d.reply(ctx, req.ChatID, messageCommandFailed)
	return metrics.OutcomeFailed
}

func (d *Dispatcher) countUsage(ctx context.Context) {
	if err := d.repo.IncrementCommands(ctx, d.clock.Now().In(d.statsLoc)); err != nil {
		slog.Error("failed to increment command counter", "error", err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, chatID, text string) {
	if err := d.transport.SendMessage(ctx, chatID, text); err != nil {
		slog.Warn("failed to send reply", "error", err, "chat_id", chatID)
	}
}
