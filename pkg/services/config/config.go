package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "REPORT_EXPORT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Render  RenderConfig  `mapstructure:"render"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UploadConfig struct {
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// RenderConfig holds the defaults applied when a request leaves a render
// option unset.
type RenderConfig struct {
	Format      string `mapstructure:"format"`
	PaperSize   string `mapstructure:"paper_size"`
	Orientation string `mapstructure:"orientation"`
	Delimiter   string `mapstructure:"delimiter"`
	ReportType  string `mapstructure:"report_type"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("upload.max_bytes", 150<<20)
	v.SetDefault("upload.allowed_extensions", []string{"csv", "xlsx"})
	v.SetDefault("render.format", "pdf")
	v.SetDefault("render.paper_size", "A4")
	v.SetDefault("render.orientation", "portrait")
	v.SetDefault("render.delimiter", ",")
	v.SetDefault("render.report_type", "summary")
	v.SetDefault("metrics.namespace", "report_export")
}

// LoadConfig reads the optional config file at path and applies
// REPORT_EXPORT_* environment overrides on top of the defaults.
// SERVER_HOST and SERVER_PORT are honoured as well.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "SERVER_HOST")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "SERVER_PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
