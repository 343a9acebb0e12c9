package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/clock"
	"github.com/pyar/asocmembers/internal/config"
	"github.com/pyar/asocmembers/internal/debt"
	"github.com/pyar/asocmembers/internal/event"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
	"github.com/pyar/asocmembers/internal/invoice"
	"github.com/pyar/asocmembers/internal/ledger"
	"github.com/pyar/asocmembers/internal/logger"
	"github.com/pyar/asocmembers/internal/member"
	"github.com/pyar/asocmembers/internal/migration"
	"github.com/pyar/asocmembers/internal/observability/metrics"
	"github.com/pyar/asocmembers/internal/observability/tracing"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/pyar/asocmembers/internal/scheduler"
	"github.com/pyar/asocmembers/internal/server"
	"github.com/pyar/asocmembers/internal/storage"
	"github.com/pyar/asocmembers/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		tracing.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		metrics.Module,
		storage.Module,

		// Functional Domains
		member.Module,
		ledger.Module,
		debt.Module,
		reconcile.Module,
		mercadopago.Module,
		invoice.Module,
		event.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
