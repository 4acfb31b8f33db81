package config

import "sync"

// ProviderConfig describes one storage backend to register at startup.
// Registration order matters: the first entry is the last-resort default
// when no tier matches a file's category.
type ProviderConfig struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"` // minio, s3
	Tier     string `json:"tier"` // standard, deep-archive
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
	Bucket   string `json:"bucket"`
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"`
	UseSSL   bool   `json:"use_ssl"`
}

// ProvidersConfig holds the ordered backend registry configuration.
type ProvidersConfig struct {
	Providers []ProviderConfig `json:"providers"`
}

var ProviderConfigInstance *ProvidersConfig
var providerConfigOnce sync.Once

// InitProviderConfig builds the default provider registry configuration:
// a MinIO node for the fast standard tier and, when S3 credentials are
// configured, an S3 bucket with the Glacier storage class for the
// deep-archive tier.
func InitProviderConfig() {
	providerConfigOnce.Do(func() {
		providers := []ProviderConfig{
			{
				Name:     "minio",
				Kind:     "minio",
				Tier:     "standard",
				Enabled:  true,
				Endpoint: AppConfig.MinioHost + ":" + AppConfig.MinioPort,
				Bucket:   AppConfig.BucketName,
				Username: AppConfig.MinioUsername,
				Password: AppConfig.MinioPassword,
				UseSSL:   false,
			},
		}
		if AppConfig.S3AccessKey != "" {
			providers = append(providers, ProviderConfig{
				Name:     "glacier",
				Kind:     "s3",
				Tier:     "deep-archive",
				Enabled:  true,
				Endpoint: AppConfig.S3Endpoint,
				Bucket:   AppConfig.S3ArchiveBucket,
				Username: AppConfig.S3AccessKey,
				Password: AppConfig.S3SecretKey,
				Region:   AppConfig.S3Region,
			})
		}
		ProviderConfigInstance = &ProvidersConfig{Providers: providers}
	})
}
