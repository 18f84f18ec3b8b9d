package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Export    ExportConfig    `yaml:"export"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	// Mode is "http" (JSON API plus MCP at /mcp) or "stdio" (MCP only).
	Mode string `yaml:"mode"`
}

type GeminiConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	DraftModel      string `yaml:"draft_model"`
	SupplementModel string `yaml:"supplement_model"`
	SummaryModel    string `yaml:"summary_model"`
}

type ArchiveConfig struct {
	Timezone string `yaml:"timezone"`
}

type ExportConfig struct {
	FilePrefix string `yaml:"file_prefix"`
	SheetName  string `yaml:"sheet_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Gemini: GeminiConfig{
			DraftModel:      "gemini-3-flash-preview",
			SupplementModel: "gemini-3-pro-preview",
			SummaryModel:    "gemini-3-flash-preview",
		},
		Archive: ArchiveConfig{
			Timezone: "Asia/Seoul",
		},
		Export: ExportConfig{
			FilePrefix: "시공절차_안전계획서",
			SheetName:  "SafetyPlan",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to RISKDRAFT_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RISKDRAFT_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("RISKDRAFT_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("RISKDRAFT_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid RISKDRAFT_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if level := os.Getenv("RISKDRAFT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("RISKDRAFT_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("RISKDRAFT_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if key := firstEnv("RISKDRAFT_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if baseURL := os.Getenv("RISKDRAFT_GEMINI_BASE_URL"); baseURL != "" {
		cfg.Gemini.BaseURL = baseURL
	}
	if model := os.Getenv("RISKDRAFT_DRAFT_MODEL"); model != "" {
		cfg.Gemini.DraftModel = model
	}
	if model := os.Getenv("RISKDRAFT_SUPPLEMENT_MODEL"); model != "" {
		cfg.Gemini.SupplementModel = model
	}
	if model := os.Getenv("RISKDRAFT_SUMMARY_MODEL"); model != "" {
		cfg.Gemini.SummaryModel = model
	}
	if tz := os.Getenv("RISKDRAFT_TIMEZONE"); tz != "" {
		cfg.Archive.Timezone = tz
	}
	if prefix := os.Getenv("RISKDRAFT_EXPORT_PREFIX"); prefix != "" {
		cfg.Export.FilePrefix = prefix
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q: want http or stdio", c.Transport.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
