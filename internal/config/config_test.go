package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("INVOICES_FROM", "")
	t.Setenv("JOBS_ENABLED", "")

	cfg := Load()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, 500, DefaultGatewayConfig().PageSize)
	assert.True(t, cfg.Invoice.From.Equal(time.Date(2018, time.August, 1, 3, 0, 0, 0, time.UTC)))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("JOBS_ENABLED", "off")
	t.Setenv("INVOICE_SELLING_POINT", "7")
	t.Setenv("INVOICES_FROM", "2019-01-01T00:00:00-03:00")
	t.Setenv("MERCADOPAGO_BASE_URL", "http://localhost:9000/")
	t.Setenv("S3_PREFIX", "/receipts/")
	t.Setenv("JOBS_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Jobs.Enabled)
	assert.Equal(t, 7, cfg.Invoice.SellingPoint)
	assert.Equal(t, time.Date(2019, time.January, 1, 3, 0, 0, 0, time.UTC), cfg.Invoice.From)
	assert.Equal(t, "http://localhost:9000", cfg.MercadoPago.BaseURL)
	assert.Equal(t, "receipts", cfg.S3.Prefix)
	assert.Equal(t, 10*time.Minute, cfg.Jobs.Timeout)
}

func TestGatewayConfigHolderDefaultsWithoutFile(t *testing.T) {
	holder, err := NewGatewayConfigHolder(Config{GatewayConfigPath: t.TempDir()})
	if err != nil {
		t.Fatalf("holder: %v", err)
	}

	assert.Equal(t, DefaultGatewayConfig(), holder.Get())
}

func TestGatewayConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("mercadopago:\n  pageSize: 50\n  subscriptionPrefixes:\n    - Cuota mensual\n")
	if err := os.WriteFile(filepath.Join(dir, "gateway.yml"), content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	holder, err := NewGatewayConfigHolder(Config{GatewayConfigPath: dir})
	if err != nil {
		t.Fatalf("holder: %v", err)
	}

	cfg := holder.Get()
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, []string{"Cuota mensual"}, cfg.SubscriptionPrefixes)
}

func TestGatewayConfigHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("mercadopago:\n  pageSize: 0\n")
	if err := os.WriteFile(filepath.Join(dir, "gateway.yml"), content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewGatewayConfigHolder(Config{GatewayConfigPath: dir})
	assert.Error(t, err)
}

func TestLoadTracingSettings(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " collector:4317 ")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "bogus")

	cfg := Load()

	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "http", cfg.OTLPProtocol)
	assert.Equal(t, 0.1, cfg.TraceSamplingRatio)
}
