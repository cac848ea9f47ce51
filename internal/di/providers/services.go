package providers

import (
	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/service"
)

// ProvideRegistry provides the user registry.
func ProvideRegistry(i do.Injector) (*service.Registry, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRegistry(storeHandle.UserStore, log.Component("registry")), nil
}
