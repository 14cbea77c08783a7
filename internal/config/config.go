package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
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
	Content struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		TTL     string `yaml:"ttl"`
	} `yaml:"content"`
	Speech struct {
		APIKey   string `yaml:"api_key"`
		Language string `yaml:"language"`
	} `yaml:"speech"`
	Game struct {
		PresentationDelay string `yaml:"presentation_delay"`
		AdvanceDelay      string `yaml:"advance_delay"`
		RetryDelay        string `yaml:"retry_delay"`
	} `yaml:"game"`
}

// Load reads YAML config from path, then applies environment overrides for
// secrets (a .env file is honored when present).
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	_ = godotenv.Load()
	if v := os.Getenv("CONTENT_API_KEY"); v != "" {
		cfg.Content.APIKey = v
	}
	if v := os.Getenv("SPEECH_API_KEY"); v != "" {
		cfg.Speech.APIKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
