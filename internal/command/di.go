package command

import (
	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/queue"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewDefaultRegistry(Deps{
			Repo:          do.MustInvoke[repository.Repository](i),
			Transport:     do.MustInvoke[messaging.Transport](i),
			Queue:         do.MustInvoke[*queue.Engine](i),
			Media:         do.MustInvoke[media.Lookup](i),
			Recorder:      do.MustInvoke[*activity.Recorder](i),
			Clock:         do.MustInvoke[clock.Clock](i),
			StatsLocation: cfg.StatsLocation(),
			LookupTimeout: cfg.MediaLookupTimeout,
		}), nil
	})

	do.Provide(injector, func(i do.Injector) (*Dispatcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewDispatcher(
			cfg.CommandPrefix,
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[*Registry](i),
			do.MustInvoke[messaging.Transport](i),
			do.MustInvoke[*activity.Recorder](i),
			do.MustInvoke[clock.Clock](i),
			cfg.StatsLocation(),
		), nil
	})
}
