// Ininicializing resize-assets configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

const envPrefix = "RESIZE"

type Config struct {
	Root             string        `mapstructure:"root"`
	SourceDir        string        `mapstructure:"source_dir"`
	SkipSuffixes     []string      `mapstructure:"skip_suffixes"`
	Quality          int           `mapstructure:"quality"`
	Filter           string        `mapstructure:"filter"`
	CreateOutputDirs bool          `mapstructure:"create_output_dirs"`
	ContinueOnError  bool          `mapstructure:"continue_on_error"`
	Tiers            []entity.Tier `mapstructure:"tiers"`
	Stage            StageConfig   `mapstructure:"stage"`
	Server           ServerConfig  `mapstructure:"server"`
	Events           EventsConfig  `mapstructure:"events"`
	Cache            CacheConfig   `mapstructure:"cache"`
	Watch            WatchConfig   `mapstructure:"watch"`
}

type StageConfig struct {
	Mode string `mapstructure:"mode"` // gogit, exec or none
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	MaxUpload    int64         `mapstructure:"max_upload"`
}

type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Driver   string        `mapstructure:"driver"` // redis or memory
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("source_dir", "assets")
	v.SetDefault("skip_suffixes", []string{".md"})
	v.SetDefault("quality", 75)
	v.SetDefault("filter", "lanczos")
	v.SetDefault("create_output_dirs", false)
	v.SetDefault("continue_on_error", false)

	tiers := make([]map[string]interface{}, 0, 3)
	for _, t := range entity.DefaultTiers() {
		tiers = append(tiers, map[string]interface{}{
			"name":   t.Name,
			"width":  t.Width,
			"height": t.Height,
			"policy": string(t.Policy),
			"dir":    t.Dir,
		})
	}
	v.SetDefault("tiers", tiers)

	v.SetDefault("stage.mode", "gogit")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.max_upload", int64(32<<20))

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9094"})
	v.SetDefault("events.topic", "asset-resized")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("watch.debounce", 500*time.Millisecond)
}

// LoadConfig reads the yaml config at path, or config/config.yaml when path
// is empty. A missing default file is not an error: the defaults reproduce
// the plain assets -> assets-{small,medium,large} layout.
func LoadConfig(path string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if path != "" {
		viperInstance.SetConfigFile(path)
	} else {
		viperInstance.AddConfigPath("./config")
		viperInstance.SetConfigName("config")
		viperInstance.SetConfigType("yaml")
	}

	err := viperInstance.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return viperInstance, nil
		}
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("source_dir must be set")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be within 1..100, got %d", c.Quality)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: at least one tier is required", entity.ErrInvalidTier)
	}
	seen := make(map[string]bool, len(c.Tiers))
	for _, t := range c.Tiers {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Dir] {
			return fmt.Errorf("%w: output dir %q used by more than one tier", entity.ErrInvalidTier, t.Dir)
		}
		seen[t.Dir] = true
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return errors.New("events.brokers must be set when events are enabled")
	}
	switch c.Stage.Mode {
	case "gogit", "exec", "none":
	default:
		return fmt.Errorf("unknown stage mode %q", c.Stage.Mode)
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
