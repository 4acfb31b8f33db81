package storage

import (
	"log"

	"ColdVault/config"
)

// InitProviders builds the process-wide registry from the configured
// backends, preserving configuration order.
func InitProviders() {
	var providers []Provider
	for _, cfg := range config.ProviderConfigInstance.Providers {
		if !cfg.Enabled {
			continue
		}
		switch cfg.Kind {
		case "minio":
			providers = append(providers, InitMinioProvider(cfg))
		case "s3":
			providers = append(providers, InitS3GlacierProvider(cfg))
		default:
			log.Fatalf("unknown storage provider kind %q", cfg.Kind)
		}
	}
	if len(providers) == 0 {
		log.Fatal("no storage providers configured")
	}
	Default = NewRegistry(providers...)
	log.Printf("init storage providers success (%d registered)", len(providers))
}

// TierProviders maps each configured tier to the first enabled provider
// serving it.
func TierProviders() map[string]string {
	out := make(map[string]string)
	for _, cfg := range config.ProviderConfigInstance.Providers {
		if !cfg.Enabled {
			continue
		}
		if _, ok := out[cfg.Tier]; !ok {
			out[cfg.Tier] = cfg.Name
		}
	}
	return out
}
