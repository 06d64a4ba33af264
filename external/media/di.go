package media

import (
	"context"

	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/media"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (media.Lookup, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.MediaProvider == config.MediaProviderYtDlp {
			return NewYtDlpLookup(cfg.YtDlpPath), nil
		}
		return NewYouTubeLookup(context.Background(), cfg.YouTubeAPIKey)
	})
}
