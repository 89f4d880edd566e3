package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		BasePoints       int    `yaml:"base_points"`
		AnswerKeyTTL     string `yaml:"answer_key_ttl"`
		DefaultTimeLimit int    `yaml:"default_time_limit"`
	} `yaml:"quiz"`
	Simulator struct {
		CohortSize     int      `yaml:"cohort_size"`
		OffsetStep     string   `yaml:"offset_step"`
		MinAnswerDelay string   `yaml:"min_answer_delay"`
		MaxAnswerDelay string   `yaml:"max_answer_delay"`
		Names          []string `yaml:"names"`
	} `yaml:"simulator"`
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

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
