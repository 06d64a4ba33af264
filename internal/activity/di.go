package activity

import (
	"github.com/foxseedlab/gunkan/internal/clock"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/foxseedlab/gunkan/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Recorder, error) {
		repo := do.MustInvoke[repository.Repository](i)
		alert := do.MustInvoke[webhook.Sender](i)
		clk := do.MustInvoke[clock.Clock](i)
		return NewRecorder(repo, alert, clk), nil
	})
}
