package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/gunkan/internal/config"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

type envConfig struct {
	Env                    string        `env:"ENV" envDefault:"production"`
	StorageDriver          string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	WhatsAppStoreDSN       string        `env:"WHATSAPP_STORE_DSN" envDefault:"file:whatsmeow.db?_pragma=foreign_keys(1)"`
	WhatsAppDeviceName     string        `env:"WHATSAPP_DEVICE_NAME" envDefault:"Chrome (Linux)"`
	PairingPhone           string        `env:"PAIRING_PHONE"`
	CommandPrefix          string        `env:"COMMAND_PREFIX" envDefault:"/"`
	ReconnectBaseDelay     time.Duration `env:"RECONNECT_BASE_DELAY" envDefault:"3s"`
	ReconnectMaxDelay      time.Duration `env:"RECONNECT_MAX_DELAY" envDefault:"1m"`
	MediaProvider          string        `env:"MEDIA_PROVIDER" envDefault:"youtube"`
	YouTubeAPIKey          string        `env:"YOUTUBE_API_KEY"`
	YtDlpPath              string        `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	MediaLookupTimeout     time.Duration `env:"MEDIA_LOOKUP_TIMEOUT" envDefault:"20s"`
	AlertWebhookURL        string        `env:"ALERT_WEBHOOK_URL"`
	AlertDiscordWebhookURL string        `env:"ALERT_DISCORD_WEBHOOK_URL"`
	MetricsAddr            string        `env:"METRICS_ADDR"`
	StatsTimezone          string        `env:"STATS_TIMEZONE" envDefault:"UTC"`
}

// Load reads an optional dotenv file (ENV_FILE, default .env) and then the
// process environment. Variables already set in the environment win.
func Load() (*internalconfig.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                    raw.Env,
		StorageDriver:          raw.StorageDriver,
		DatabaseURL:            raw.DatabaseURL,
		WhatsAppStoreDSN:       raw.WhatsAppStoreDSN,
		WhatsAppDeviceName:     raw.WhatsAppDeviceName,
		PairingPhone:           raw.PairingPhone,
		CommandPrefix:          raw.CommandPrefix,
		ReconnectBaseDelay:     raw.ReconnectBaseDelay,
		ReconnectMaxDelay:      raw.ReconnectMaxDelay,
		MediaProvider:          raw.MediaProvider,
		YouTubeAPIKey:          raw.YouTubeAPIKey,
		YtDlpPath:              raw.YtDlpPath,
		MediaLookupTimeout:     raw.MediaLookupTimeout,
		AlertWebhookURL:        raw.AlertWebhookURL,
		AlertDiscordWebhookURL: raw.AlertDiscordWebhookURL,
		MetricsAddr:            raw.MetricsAddr,
		StatsTimezone:          raw.StatsTimezone,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}
