package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxseedlab/gunkan/internal/repository"
)

type utilityHandlers struct {
	repo repository.CommandRepository
}

func (h *utilityHandlers) help(ctx context.Context, req *Request) error {
	commands, err := h.repo.ListCommands(ctx, repository.CommandFilter{})
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	return req.Reply(ctx, buildHelpText(req.Prefix, commands))
}

func (h *utilityHandlers) ping(ctx context.Context, req *Request) error {
	return req.Reply(ctx, messagePong)
}

func (h *utilityHandlers) userinfo(ctx context.Context, req *Request) error {
	target := req.SenderID
	if len(req.Mentions) > 0 {
		target = req.Mentions[0]
	} else if len(req.Args) > 0 {
		t, err := parseTarget(req.Args[0])
		if err != nil {
			return invalid(usageMessage(req.Prefix, req.Name, req.Command.Usage))
		}
		target = t
	}

	chat := "private chat"
	if req.IsGroup {
		chat = "group"
	}
	lines := []string{
		messageUserInfoTitle,
		"",
		fmt.Sprintf("Phone: %s", displayUser(target)),
		fmt.Sprintf("Asked from: %s", chat),
	}
	return req.Reply(ctx, strings.Join(lines, "\n"))
}
