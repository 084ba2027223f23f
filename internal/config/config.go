package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"solfege-learning-service/internal/engine"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Engine struct {
		Thresholds        engine.Thresholds `yaml:"thresholds"`
		DefaultWeeklyGoal int               `yaml:"defaultWeeklyGoal"`
	} `yaml:"engine"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ProgressionThresholds returns the configured progression rules, falling back to the
// shipped defaults when the section is absent.
func (c Config) ProgressionThresholds() engine.Thresholds {
	t := c.Engine.Thresholds
	if t == (engine.Thresholds{}) {
		return engine.DefaultThresholds()
	}
	return t
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
