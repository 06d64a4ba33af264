package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	MediaProviderYouTube = "youtube"
	MediaProviderYtDlp   = "ytdlp"
)

type Config struct {
	Env                    string
	StorageDriver          string
	DatabaseURL            string
	WhatsAppStoreDSN       string
	WhatsAppDeviceName     string
	PairingPhone           string
	CommandPrefix          string
	ReconnectBaseDelay     time.Duration
	ReconnectMaxDelay      time.Duration
	MediaProvider          string
	YouTubeAPIKey          string
	YtDlpPath              string
	MediaLookupTimeout     time.Duration
	AlertWebhookURL        string
	AlertDiscordWebhookURL string
	MetricsAddr            string
	StatsTimezone          string
}

var discordWebhookPattern = regexp.MustCompile(`^https://(?:(?:canary|ptb)\.)?discord(?:app)?\.com/api/webhooks/\d+/[\w-]+/?$`)

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StorageDriverPostgres)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}
	if c.WhatsAppStoreDSN == "" {
		return fmt.Errorf("WHATSAPP_STORE_DSN is required")
	}
	if len([]rune(c.CommandPrefix)) != 1 || strings.TrimSpace(c.CommandPrefix) == "" {
		return fmt.Errorf("COMMAND_PREFIX must be a single non-space character, got %q", c.CommandPrefix)
	}
	if c.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("RECONNECT_BASE_DELAY must be positive, got %s", c.ReconnectBaseDelay)
	}
	if c.ReconnectMaxDelay < c.ReconnectBaseDelay {
		return fmt.Errorf("RECONNECT_MAX_DELAY (%s) must not be shorter than RECONNECT_BASE_DELAY (%s)", c.ReconnectMaxDelay, c.ReconnectBaseDelay)
	}
	switch c.MediaProvider {
	case MediaProviderYouTube:
		if c.YouTubeAPIKey == "" {
			return fmt.Errorf("YOUTUBE_API_KEY is required when MEDIA_PROVIDER=%s", MediaProviderYouTube)
		}
	case MediaProviderYtDlp:
		if c.YtDlpPath == "" {
			return fmt.Errorf("YTDLP_PATH is required when MEDIA_PROVIDER=%s", MediaProviderYtDlp)
		}
	default:
		return fmt.Errorf("MEDIA_PROVIDER must be %q or %q, got %q", MediaProviderYouTube, MediaProviderYtDlp, c.MediaProvider)
	}
	if c.MediaLookupTimeout <= 0 {
		return fmt.Errorf("MEDIA_LOOKUP_TIMEOUT must be positive, got %s", c.MediaLookupTimeout)
	}
	if c.AlertDiscordWebhookURL != "" && !discordWebhookPattern.MatchString(c.AlertDiscordWebhookURL) {
		return fmt.Errorf("ALERT_DISCORD_WEBHOOK_URL is not a discord webhook url")
	}
	if c.StatsTimezone == "" {
		return fmt.Errorf("STATS_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.StatsTimezone); err != nil {
		return fmt.Errorf("STATS_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// StatsLocation is the zone that decides where one "day" of usage counters ends.
func (c *Config) StatsLocation() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
