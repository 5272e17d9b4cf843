package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. WINDOW_PREDICTOR_MODEL.
const EnvPrefix = "WINDOW_PREDICTOR"

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int `mapstructure:"port" validate:"min=1,max=65535"`
	MetricsPort int `mapstructure:"metrics_port" validate:"min=1,max=65535,nefield=Port"`

	// Model configuration
	Model          string        `mapstructure:"model" validate:"required_without=UseMockInference"`
	ORTLibrary     string        `mapstructure:"ort_library"`
	InputName      string        `mapstructure:"input_name"`
	OutputName     string        `mapstructure:"output_name"`
	PredictTimeout time.Duration `mapstructure:"predict_timeout" validate:"min=0"`

	// Prediction cache; an empty address disables it
	Redis    string        `mapstructure:"redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"min=0"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 50051)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("model", "model.onnx")
	v.SetDefault("ort_library", "")
	v.SetDefault("input_name", "input")
	v.SetDefault("output_name", "")
	v.SetDefault("predict_timeout", 10*time.Second)
	v.SetDefault("redis", "")
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("use_mock_inference", false)
}

// Flags returns the command-line flags understood by Load. Flag names match
// config keys with dashes instead of underscores.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("window-predictor", pflag.ContinueOnError)
	fs.String("config", "", "Path to config file (optional)")
	fs.Int("port", 0, "gRPC server port (default: 50051)")
	fs.Int("metrics-port", 0, "Prometheus metrics port (default: 9100)")
	fs.String("model", "", "Path to ONNX model file (default: model.onnx)")
	fs.String("ort-library", "", "Path to the onnxruntime shared library")
	fs.Duration("predict-timeout", 0, "Maximum time to wait for one prediction (default: 10s)")
	fs.String("redis", "", "Redis address for the prediction cache (empty disables it)")
	fs.String("log-level", "", "Log level: trace, debug, info, warn, error")
	fs.String("log-format", "", "Log format: json or console")
	fs.Bool("mock", false, "Use mock inference engine (for testing)")
	return fs
}

// Load loads configuration from flags, environment variables, and optional config file.
// Priority (highest to lowest): flags > env vars > config file > defaults.
// Only flags that were set on the command line override other sources.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Also read OTEL standard env vars
	if err := v.BindEnv("otel_endpoint", EnvPrefix+"_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("failed to bind otel env: %w", err)
	}

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/window-predictor/")
		v.AddConfigPath("$HOME/.window-predictor")
	}

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if v.GetString("otel_endpoint") != "" {
		v.Set("otel_enabled", true)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Name == "mock" {
			key = "use_mock_inference"
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
