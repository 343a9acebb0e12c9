package member

import (
	"github.com/pyar/asocmembers/internal/member/repository"
	"github.com/pyar/asocmembers/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
