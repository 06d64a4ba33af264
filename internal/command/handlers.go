package command

import (
	"time"

	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
)

const defaultLookupTimeout = 15 * time.Second

// Deps are the collaborators of the built-in handlers.
type Deps struct {
	Repo          repository.Repository
	Transport     messaging.Transport
	Queue         *queue.Engine
	Media         media.Lookup
	Recorder      *activity.Recorder
	Clock         clock.Clock
	StatsLocation *time.Location
	LookupTimeout time.Duration
}

// NewDefaultRegistry registers a handler for every catalog command.
func NewDefaultRegistry(deps Deps) *Registry {
	if deps.LookupTimeout <= 0 {
		deps.LookupTimeout = defaultLookupTimeout
	}
	if deps.StatsLocation == nil {
		deps.StatsLocation = time.UTC
	}

	r := NewRegistry()

	u := &utilityHandlers{repo: deps.Repo}
	r.Register("help", HandlerFunc(u.help))
	r.Register("ping", HandlerFunc(u.ping))
	r.Register("userinfo", HandlerFunc(u.userinfo))

	m := &moderationHandlers{transport: deps.Transport, recorder: deps.Recorder}
	r.Register("kick", m.participants(messaging.ParticipantRemove, messageKickDone, messageKickFailed))
	r.Register("promote", m.participants(messaging.ParticipantPromote, messagePromoteDone, messagePromoteFailed))
	r.Register("demote", m.participants(messaging.ParticipantDemote, messageDemoteDone, messageDemoteFailed))
	r.Register("mute", HandlerFunc(m.mute))

	p := &musicHandlers{
		repo:          deps.Repo,
		queue:         deps.Queue,
		media:         deps.Media,
		recorder:      deps.Recorder,
		clock:         deps.Clock,
		statsLoc:      deps.StatsLocation,
		lookupTimeout: deps.LookupTimeout,
	}
	r.Register("play", HandlerFunc(p.play))
	r.Register("queue", HandlerFunc(p.list))
	r.Register("skip", HandlerFunc(p.skip))

	return r
}
