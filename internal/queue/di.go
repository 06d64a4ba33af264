package queue

import (
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		repo := do.MustInvoke[repository.Repository](i)
		return NewEngine(repo), nil
	})
}
