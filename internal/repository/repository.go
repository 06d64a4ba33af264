package repository

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("repository: not found")

type SessionRepository interface {
	// GetSession returns nil when no session was ever created.
	GetSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s Session) error
}

type GroupRepository interface {
	ListGroups(ctx context.Context) ([]Group, error)
	// GetGroup returns nil when the group is unknown.
	GetGroup(ctx context.Context, id string) (*Group, error)
	// SyncGroup upserts the metadata the transport knows about and keeps
	// moderation settings and greeting texts of an existing row.
	SyncGroup(ctx context.Context, input SyncGroupInput) error
	UpdateGroupSettings(ctx context.Context, id string, patch GroupSettingsPatch) (*Group, error)
	SetBotIsAdmin(ctx context.Context, id string, isAdmin bool) error
	DeleteGroup(ctx context.Context, id string) error
}

type SyncGroupInput struct {
	ID          string
	Name        string
	MemberCount int
	BotIsAdmin  bool
}

type GroupSettingsPatch struct {
	ModerationEnabled *bool
	AntiSpam          *bool
	AntiLink          *bool
	WelcomeMessage    *string
	FarewellMessage   *string
}

type CommandRepository interface {
	ListCommands(ctx context.Context, filter CommandFilter) ([]Command, error)
	// GetCommand returns nil when no command has that name.
	GetCommand(ctx context.Context, name string) (*Command, error)
	// EnsureCommand inserts the command unless one with the same name exists.
	EnsureCommand(ctx context.Context, c Command) error
	UpdateCommand(ctx context.Context, name string, patch CommandPatch) (*Command, error)
}

type CommandFilter struct {
	Category CommandCategory
}

type CommandPatch struct {
	Enabled   *bool
	AdminOnly *bool
}

type LogRepository interface {
	AppendLog(ctx context.Context, entry LogEntry) error
	// ListLogs returns newest first.
	ListLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error)
	ClearLogs(ctx context.Context) error
}

type LogFilter struct {
	Level  LogLevel
	Source LogSource
	Limit  int
}

const DefaultLogLimit = 100

type QueueRepository interface {
	// ListQueue returns the items of a group ordered by position.
	ListQueue(ctx context.Context, groupID string) ([]QueueItem, error)
	InsertQueueItem(ctx context.Context, item QueueItem) (*QueueItem, error)
	UpdateQueueItemStatus(ctx context.Context, id string, status QueueStatus) error
	ClearQueue(ctx context.Context, groupID string) (int, error)
}

type StatsRepository interface {
	GetStats(ctx context.Context, day time.Time) (Stats, error)
	IncrementCommands(ctx context.Context, day time.Time) error
	IncrementMusicRequests(ctx context.Context, day time.Time) error
	SetActiveGroups(ctx context.Context, day time.Time, n int) error
}

type Repository interface {
	SessionRepository
	GroupRepository
	CommandRepository
	LogRepository
	QueueRepository
	StatsRepository
}

// Day truncates t to the calendar day of its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
