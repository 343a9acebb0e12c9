package ledger

import (
	"github.com/pyar/asocmembers/internal/ledger/repository"
	"github.com/pyar/asocmembers/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
