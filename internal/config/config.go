package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Map     MapConfig     `mapstructure:"map"`
	Routing RoutingConfig `mapstructure:"routing"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type MapConfig struct {
	File     string `mapstructure:"file" validate:"required"`
	Strict   bool   `mapstructure:"strict"`
	PBFProcs int    `mapstructure:"pbf_procs" validate:"gte=1"`
}

type RoutingConfig struct {
	StandardSpeed float64       `mapstructure:"standard_speed" validate:"gt=0"`
	MaxExpansions int           `mapstructure:"max_expansions" validate:"gte=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Strategy      string        `mapstructure:"strategy" validate:"oneof=bestfirst contraction"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size" validate:"gte=0"`
	TTL  time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from .env, config file and environment variables.
// If path is empty, optional config.yaml is looked up in working directory and ./configs.
// Overrides (e.g. command line flags) take precedence over everything else: keys are dotted, like "map.file".
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("map.file", "")
	v.SetDefault("map.strict", true)
	v.SetDefault("map.pbf_procs", 4)
	v.SetDefault("routing.standard_speed", 50.0)
	v.SetDefault("routing.max_expansions", 0)
	v.SetDefault("routing.timeout", "0s")
	v.SetDefault("routing.strategy", "bestfirst")
	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config '%s': %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: MONAD_MAP_FILE → map.file
	v.SetEnvPrefix("MONAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Routing.Strategy = strings.ToLower(cfg.Routing.Strategy)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags of the configuration.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		errs := []string{}
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrs {
				errs = append(errs, fmt.Sprintf("%s failed on '%s' (value: %v)", fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value()))
			}
		} else {
			errs = append(errs, err.Error())
		}
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Addr returns listen address of HTTP server
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
