package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GatewayConfig holds the payment gateway import rules that operators tweak at runtime.
type GatewayConfig struct {
	PageSize             int      `mapstructure:"pageSize"`
	SubscriptionPrefixes []string `mapstructure:"subscriptionPrefixes"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		PageSize: 500,
		SubscriptionPrefixes: []string{
			"Socies Adherentes cuota",
			"Socies Actives cuota",
			"Cuota mensual",
		},
	}
}

type GatewayConfigHolder struct {
	current atomic.Value // holds GatewayConfig
}

// NewStaticGatewayConfigHolder wraps a fixed config, without file watching.
func NewStaticGatewayConfigHolder(cfg GatewayConfig) *GatewayConfigHolder {
	holder := &GatewayConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewGatewayConfigHolder(appCfg Config) (*GatewayConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("gateway")
	v.SetConfigType("yml")
	v.AddConfigPath(appCfg.GatewayConfigPath)
	v.AddConfigPath("/etc/asocmembers")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ASOCMEMBERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGatewayConfig()
	v.SetDefault("mercadopago.pageSize", defaults.PageSize)
	v.SetDefault("mercadopago.subscriptionPrefixes", defaults.SubscriptionPrefixes)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg GatewayConfig
	if err := v.UnmarshalKey("mercadopago", &cfg); err != nil {
		return nil, err
	}
	if err := validateGatewayConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticGatewayConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated GatewayConfig
		if err := v.UnmarshalKey("mercadopago", &updated); err != nil {
			log.Printf("[gateway-config] reload failed: %v", err)
			return
		}
		if err := validateGatewayConfig(updated); err != nil {
			log.Printf("[gateway-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[gateway-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *GatewayConfigHolder) Get() GatewayConfig {
	return h.current.Load().(GatewayConfig)
}

func validateGatewayConfig(cfg GatewayConfig) error {
	if cfg.PageSize <= 0 {
		return errors.New("mercadopago.pageSize must be positive")
	}
	if len(cfg.SubscriptionPrefixes) == 0 {
		return errors.New("mercadopago.subscriptionPrefixes cannot be empty")
	}
	return nil
}
