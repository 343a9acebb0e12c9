package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pyar/asocmembers/internal/config"
	"go.uber.org/fx"
)

func configFrom(cfg config.Config) Config {
	return Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}

var Module = fx.Module("metrics",
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(func(reg prometheus.Registerer, cfg config.Config) *SchedulerMetrics {
		return NewSchedulerMetrics(reg, configFrom(cfg))
	}),
	fx.Provide(func(reg prometheus.Registerer, cfg config.Config) *ReconcileMetrics {
		return NewReconcileMetrics(reg, configFrom(cfg))
	}),
)
