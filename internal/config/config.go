package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
	MaxParticipants int           `mapstructure:"max_participants"`
	IdleRoomTimeout time.Duration `mapstructure:"idle_room_timeout"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	MaxChatLen      int           `mapstructure:"max_chat_len"`
}

// Origins splits the comma-separated CORS whitelist.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads defaults, an optional yaml file and HUDDLE_* environment
// variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("max_participants", 50)
	v.SetDefault("idle_room_timeout", "60m")
	v.SetDefault("sweep_interval", "5m")
	v.SetDefault("ping_interval", "25s")
	v.SetDefault("ping_timeout", "60s")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("max_chat_len", 1000)

	v.SetEnvPrefix("huddle")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Int("max_participants", cfg.MaxParticipants).Msg("config ready")
	return &cfg, nil
}
