package whatsapp

import (
	"context"
	"time"

	"github.com/foxseedlab/gunkan/internal/config"
	"github.com/foxseedlab/gunkan/internal/messaging"
	"github.com/samber/do/v2"
)

const storeOpenTimeout = 30 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (messaging.Transport, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
		defer cancel()

		container, err := OpenDeviceStore(ctx, cfg.WhatsAppStoreDSN, newLogger("whatsmeow_store"))
		if err != nil {
			return nil, err
		}
		return NewClient(ctx, container, cfg.WhatsAppDeviceName, newLogger("whatsmeow"))
	})
}
