// Package config loads leafmetrics settings from a YAML file and
// LEAFMETRICS_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/leafmetrics/internal/measure"
)

// EnvPrefix prefixes every environment override, e.g.
// LEAFMETRICS_STORE_BACKEND or LEAFMETRICS_MEASURE_SHEET_WHITE_THRESHOLD.
const EnvPrefix = "LEAFMETRICS"

type Config struct {
	Log     LogConfig      `mapstructure:"log"`
	Store   StoreConfig    `mapstructure:"store"`
	Sync    SyncConfig     `mapstructure:"sync"`
	Measure measure.Config `mapstructure:"measure"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	// Backend is "file" or "redis".
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SyncConfig struct {
	// Force persists every record, modified or not.
	Force bool `mapstructure:"force"`

	// Workers caps the species processed at once; 0 runs one worker per
	// species.
	Workers int `mapstructure:"workers"`

	// SummaryDir receives one <species>.json summary per species.
	SummaryDir string `mapstructure:"summary_dir"`
}

// Load reads configPath (optional) on top of the defaults and applies
// environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Measure.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "console"},
		Store: StoreConfig{
			Backend: "file",
			Dir:     "records",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "leafmetrics:",
			},
		},
		Sync: SyncConfig{
			SummaryDir: "summaries",
		},
		Measure: measure.DefaultConfig(),
	}
}

func setDefaults(v *viper.Viper) error {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)

	v.SetDefault("sync.force", d.Sync.Force)
	v.SetDefault("sync.workers", d.Sync.Workers)
	v.SetDefault("sync.summary_dir", d.Sync.SummaryDir)

	// The measurement tunables are many and nested; register each leaf so
	// that environment overrides reach them.
	tree, err := toTree(d.Measure)
	if err != nil {
		return fmt.Errorf("failed to encode measure defaults: %w", err)
	}
	setTree(v, "measure", tree)
	return nil
}

func toTree(value interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := prefix + "." + k
		if sub, ok := val.(map[string]interface{}); ok {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}
