package bot

import (
	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/command"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/foxseedlab/gunkan/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sess := do.MustInvoke[*session.Manager](i)
		svc := NewService(
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[messaging.Transport](i),
			sess,
			do.MustInvoke[*queue.Engine](i),
			do.MustInvoke[*activity.Recorder](i),
			do.MustInvoke[clock.Clock](i),
			cfg.StatsLocation(),
		)
		sess.SetOnConnected(svc.SyncGroups)
		return svc, nil
	})

	do.Provide(injector, func(i do.Injector) (*Router, error) {
		return NewRouter(
			do.MustInvoke[*session.Sequence](i),
			do.MustInvoke[*session.Manager](i),
			do.MustInvoke[*command.Dispatcher](i),
			do.MustInvoke[*Service](i),
		), nil
	})
}
