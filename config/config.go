package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rkuznets/vanish/blob"
	vanishhttp "github.com/rkuznets/vanish/http"
)

// Config is the root configuration struct for vanish.
type Config struct {
	Server    ServerConfig          `mapstructure:"server"`
	Storage   StorageConfig         `mapstructure:"storage"`
	Lifecycle LifecycleConfig       `mapstructure:"lifecycle"`
	CORS      vanishhttp.CORSConfig `mapstructure:"cors"`
	Log       LogConfig             `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// StorageConfig selects and configures the storage backend. The backend is
// chosen once at startup and fixed for the process lifetime.
type StorageConfig struct {
	// Backend is "local" (filesystem) or "s3" (any S3-compatible store).
	Backend string `mapstructure:"backend" validate:"required,oneof=local s3"`
	// Path is the storage directory for the local backend.
	Path string `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds connection settings for the s3 backend.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// BlobConfig converts the S3 section into the blob package's config.
func (c S3Config) BlobConfig() blob.Config {
	return blob.Config{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Bucket:    c.Bucket,
		UseSSL:    c.UseSSL,
	}
}

// LifecycleConfig holds the record retention knobs.
type LifecycleConfig struct {
	// DoneTTL is how long a converted file stays downloadable, in seconds.
	DoneTTL int `mapstructure:"done_ttl" validate:"min=1"`
	// ErrorTTL is how long a failed record stays visible, in seconds.
	ErrorTTL int `mapstructure:"error_ttl" validate:"min=1"`
	// StagingDir holds temp files for byte-stream backends; empty means the
	// system temp directory.
	StagingDir string `mapstructure:"staging_dir"`
}

// DoneDuration returns DoneTTL as a time.Duration.
func (c LifecycleConfig) DoneDuration() time.Duration {
	return time.Duration(c.DoneTTL) * time.Second
}

// ErrorDuration returns ErrorTTL as a time.Duration.
func (c LifecycleConfig) ErrorDuration() time.Duration {
	return time.Duration(c.ErrorTTL) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"done-ttl":        "lifecycle.done_ttl",
	"error-ttl":       "lifecycle.error_ttl",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5709)
	v.SetDefault("server.max_upload_size", 64<<20)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.use_ssl", false)

	v.SetDefault("lifecycle.done_ttl", 300)
	v.SetDefault("lifecycle.error_ttl", 10)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config file > defaults
//
// Parameters:
//   - configFile: config file path; empty falls back to ./config.yaml
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFile, "err", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("VANISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural constraints plus the cross-field rules the
// struct tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Path == "" {
			return errors.New("validate config: storage.path is required for the local backend")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return errors.New("validate config: storage.s3.endpoint and storage.s3.bucket are required for the s3 backend")
		}
	}

	return nil
}
