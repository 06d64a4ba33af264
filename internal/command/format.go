package command

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
)

const queueListLimit = 10

func buildHelpText(prefix string, commands []repository.Command) string {
	byCategory := make(map[repository.CommandCategory][]repository.Command)
	for _, c := range commands {
		if !c.Enabled {
			continue
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	lines := []string{messageHelpTitle, ""}
	for _, category := range repository.CommandCategories {
		list := byCategory[category]
		if len(list) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("*%s:*", strings.ToUpper(string(category))))
		for _, c := range list {
			lines = append(lines, fmt.Sprintf("%s%s - %s", prefix, c.Name, c.Description))
			if c.Usage != "" {
				lines = append(lines, fmt.Sprintf("   Usage: %s%s %s", prefix, c.Name, c.Usage))
			}
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func buildQueueText(prefix string, items []repository.QueueItem) string {
	if len(items) == 0 {
		return messageQueueEmpty
	}
	lines := []string{messageQueueTitle, ""}
	for i, it := range items {
		if i == queueListLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s", it.Position, statusMark(it.Status), trackLabel(it.Title, it.Artist)))
	}
	if len(items) > queueListLimit {
		lines = append(lines, "", fmt.Sprintf("... and %d more songs", len(items)-queueListLimit))
	}
	if queue.StateOf(items) == queue.StateIdle {
		lines = append(lines, "", fmt.Sprintf(messageQueueIdle, prefix))
	}
	return strings.Join(lines, "\n")
}

func statusMark(s repository.QueueStatus) string {
	switch s {
	case repository.QueueStatusPlaying:
		return "▶️"
	case repository.QueueStatusCompleted:
		return "✅"
	case repository.QueueStatusSkipped:
		return "⏭️"
	default:
		return "⏸️"
	}
}

func trackLabel(title, artist string) string {
	if artist == "" {
		return title
	}
	return fmt.Sprintf("%s by %s", title, artist)
}

// displayUser turns a JID like 15551234567@s.whatsapp.net into +15551234567.
func displayUser(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	user, _, _ = strings.Cut(user, ":")
	if user == "" {
		return jid
	}
	if strings.HasSuffix(jid, "@lid") {
		return user
	}
	return "+" + user
}
