package event

import (
	"github.com/pyar/asocmembers/internal/event/repository"
	"github.com/pyar/asocmembers/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
