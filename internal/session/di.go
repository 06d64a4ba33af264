package session

import (
	"github.com/foxseedlab/gunkan/internal/activity"
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, &Sequence{})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		transport := do.MustInvoke[messaging.Transport](i)
		clk := do.MustInvoke[clock.Clock](i)
		rec := do.MustInvoke[*activity.Recorder](i)
		seq := do.MustInvoke[*Sequence](i)
		return NewManager(cfg, repo, transport, clk, rec, seq), nil
	})
}
