package webhook

import (
	"fmt"
	"log/slog"

	"github.com/foxseedlab/gunkan/external/discord"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		senders := webhook.MultiSender{}
		if c.AlertWebhookURL != "" {
			senders = append(senders, NewHTTPSender(c.AlertWebhookURL, c.StatsLocation()))
		}
		if c.AlertDiscordWebhookURL != "" {
			ds, err := discord.NewWebhookSender(c.AlertDiscordWebhookURL)
			if err != nil {
				return nil, fmt.Errorf("failed to create discord alert sender: %w", err)
			}
			senders = append(senders, ds)
		}
		slog.Info("alert senders configured", "count", len(senders))
		return senders, nil
	})
}
