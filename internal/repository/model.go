package repository

import "time"

type SessionStatus string

const (
	SessionStatusDisconnected   SessionStatus = "disconnected"
	SessionStatusConnecting     SessionStatus = "connecting"
	SessionStatusWaitingForCode SessionStatus = "waiting_for_code"
	SessionStatusConnected      SessionStatus = "connected"
	SessionStatusError          SessionStatus = "error"
)

// Session is the single bot session row of a deployment.
type Session struct {
	ID          string
	Status      SessionStatus
	PhoneNumber string
	PairingCode string
	ConnectedAt *time.Time
	UpdatedAt   time.Time
}

type Group struct {
	ID                string
	Name              string
	MemberCount       int
	BotIsAdmin        bool
	ModerationEnabled bool
	AntiSpam          bool
	AntiLink          bool
	WelcomeMessage    string
	FarewellMessage   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CommandCategory string

const (
	CommandCategoryModeration CommandCategory = "moderation"
	CommandCategoryMusic      CommandCategory = "music"
	CommandCategoryUtility    CommandCategory = "utility"
)

// CommandCategories is the order categories are presented in.
var CommandCategories = []CommandCategory{
	CommandCategoryModeration,
	CommandCategoryMusic,
	CommandCategoryUtility,
}

type Command struct {
	Name        string
	Description string
	Category    CommandCategory
	Enabled     bool
	AdminOnly   bool
	Usage       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

type LogSource string

const (
	LogSourceWhatsApp LogSource = "whatsapp"
	LogSourceCommands LogSource = "commands"
	LogSourceMusic    LogSource = "music"
	LogSourceSystem   LogSource = "system"
)

type LogEntry struct {
	ID        string
	Level     LogLevel
	Source    LogSource
	Message   string
	Metadata  map[string]any
	Timestamp time.Time
}

type QueueStatus string

const (
	QueueStatusQueued    QueueStatus = "queued"
	QueueStatusPlaying   QueueStatus = "playing"
	QueueStatusCompleted QueueStatus = "completed"
	QueueStatusSkipped   QueueStatus = "skipped"
)

type QueueItem struct {
	ID          string
	GroupID     string
	Title       string
	Artist      string
	URL         string
	RequestedBy string
	Position    int
	Status      QueueStatus
	CreatedAt   time.Time
}

// Stats holds the usage counters of one calendar day.
type Stats struct {
	Date          time.Time
	ActiveGroups  int
	CommandsToday int
	MusicRequests int
}
