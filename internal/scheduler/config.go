package scheduler

import (
	"time"

	"github.com/pyar/asocmembers/internal/config"
)

// Config controls which jobs run and when.
type Config struct {
	Enabled           bool
	ImportCron        string
	InvoiceCron       string
	Timeout           time.Duration
	InvoiceBatchLimit int
	// InvoicesEnabled is false when there is nowhere to upload receipts.
	InvoicesEnabled bool
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		ImportCron:        "0 6 * * *",
		InvoiceCron:       "30 6 * * *",
		Timeout:           10 * time.Minute,
		InvoiceBatchLimit: 20,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:           cfg.Jobs.Enabled,
		ImportCron:        cfg.Jobs.ImportCron,
		InvoiceCron:       cfg.Jobs.InvoiceCron,
		Timeout:           cfg.Jobs.Timeout,
		InvoiceBatchLimit: cfg.Invoice.BatchLimit,
		InvoicesEnabled:   cfg.S3.Bucket != "",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ImportCron == "" {
		c.ImportCron = defaults.ImportCron
	}
	if c.InvoiceCron == "" {
		c.InvoiceCron = defaults.InvoiceCron
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.InvoiceBatchLimit <= 0 {
		c.InvoiceBatchLimit = defaults.InvoiceBatchLimit
	}
	return c
}
