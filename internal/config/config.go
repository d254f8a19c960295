// Package config loads the analysis configuration from yaml and env.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
)

// Config defines the analysis runtime configuration.
type Config struct {
	GapMinutes          int      `yaml:"gap_minutes"`
	MaxIdentifierLength int      `yaml:"max_identifier_length"`
	AllowTextValues     bool     `yaml:"allow_text_values"`
	OutputDir           string   `yaml:"output_dir"`
	ReservedWords       []string `yaml:"reserved_words"`
	DatabaseURL         string   `yaml:"database_url"`
	HTTPAddr            string   `yaml:"http_addr"`
	JWTSecret           string   `yaml:"jwt_secret"`
}

// Load builds the configuration from env defaults, overridden by the yaml
// file named in TSATOOL_CONFIG when set. Env secrets win over yaml.
func Load() (Config, error) {
	cfg := Config{
		GapMinutes:          getenvIntDefault("TSATOOL_GAP_MINUTES", 30),
		MaxIdentifierLength: getenvIntDefault("TSATOOL_MAX_IDENTIFIER_LENGTH", conditions.DefaultMaxIdentifierLen),
		OutputDir:           getenvDefault("TSATOOL_OUTPUT_DIR", "results"),
		ReservedWords:       splitCSV(os.Getenv("TSATOOL_RESERVED_WORDS")),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
	}
	cfg.AllowTextValues = os.Getenv("TSATOOL_ALLOW_TEXT_VALUES") == "true"

	if path := os.Getenv("TSATOOL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	if cfg.GapMinutes <= 0 {
		return cfg, errors.New("config: gap_minutes must be positive")
	}
	if cfg.MaxIdentifierLength <= 0 {
		return cfg, errors.New("config: max_identifier_length must be positive")
	}
	if cfg.OutputDir == "" {
		return cfg, errors.New("config: output dir required")
	}
	return cfg, nil
}

// GapTolerance returns the observation gap tolerance as a duration.
func (c Config) GapTolerance() time.Duration {
	if c.GapMinutes <= 0 {
		return observations.DefaultGapTolerance
	}
	return time.Duration(c.GapMinutes) * time.Minute
}

// Rules builds the identifier rules, merging configured reserved words
// with the ones fetched from the observation store.
func (c Config) Rules(reserved []string) conditions.Rules {
	rules := conditions.DefaultRules()
	rules.MaxIdentifierLen = c.MaxIdentifierLength
	rules.AllowTextValues = c.AllowTextValues
	rules = rules.WithReserved(c.ReservedWords)
	rules = rules.WithReserved(reserved)
	return rules
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
