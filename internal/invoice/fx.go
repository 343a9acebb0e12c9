package invoice

import (
	"github.com/pyar/asocmembers/internal/invoice/pdf"
	"github.com/pyar/asocmembers/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(pdf.New),
	fx.Provide(service.New),
)
