package discord

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/foxseedlab/gunkan/internal/webhook"
)

const (
	messageContentLimit = 2000
	alertTimeLayout     = "2006-01-02 15:04:05 MST"
)

// WebhookSender posts alerts to a Discord channel webhook. It needs no bot
// token or gateway connection.
type WebhookSender struct {
	session *discordgo.Session
	id      string
	token   string
}

func NewWebhookSender(webhookURL string) (*WebhookSender, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &WebhookSender{session: s, id: id, token: token}, nil
}

func (s *WebhookSender) SendAlert(ctx context.Context, alert webhook.Alert) error {
	_, err := s.session.WebhookExecute(s.id, s.token, false, &discordgo.WebhookParams{
		Content:         formatAlert(alert),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook execute: %w", err)
	}
	return nil
}

// parseWebhookURL splits https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "webhooks" || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("invalid discord webhook url path: %s", u.Path)
	}
	return parts[2], parts[3], nil
}

func formatAlert(alert webhook.Alert) string {
	lines := []string{
		fmt.Sprintf(":rotating_light: **[%s] %s**", strings.ToUpper(alert.Level), alert.Source),
		alert.Message,
	}
	if len(alert.Metadata) > 0 {
		keys := make([]string, 0, len(alert.Metadata))
		for k := range alert.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("-# %s: %v", k, alert.Metadata[k]))
		}
	}
	if !alert.Timestamp.IsZero() {
		lines = append(lines, "-# "+alert.Timestamp.UTC().Format(alertTimeLayout))
	}
	content := strings.Join(lines, "\n")
	if r := []rune(content); len(r) > messageContentLimit {
		content = string(r[:messageContentLimit-1]) + "…"
	}
	return content
}

var _ webhook.Sender = (*WebhookSender)(nil)
