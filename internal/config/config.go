package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// StorageBackend selects the task repository implementation.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageSQLite StorageBackend = "sqlite"
)

type Config struct {
	Seed    SeedConfig    `toml:"seed"`
	Storage StorageConfig `toml:"storage"`
	IDs     IDConfig      `toml:"ids"`
	Board   BoardConfig   `toml:"board"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type SeedConfig struct {
	Path string `toml:"path"`
}

type StorageConfig struct {
	Backend StorageBackend `toml:"backend"`
}

type IDConfig struct {
	Generator string `toml:"generator"` // ulid | uuid
}

type BoardConfig struct {
	DefaultStatus   string `toml:"default_status"`
	DefaultPriority string `toml:"default_priority"`
	ShowDescription bool   `toml:"show_description"`
	ShowTags        bool   `toml:"show_tags"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

var (
	validStatuses   = []string{"todo", "in-progress", "done"}
	validPriorities = []string{"low", "medium", "high", "urgent"}
	validLevels     = []string{"debug", "info", "warn", "error", "fatal"}
)

func Default(logDir string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: StorageMemory,
		},
		IDs: IDConfig{
			Generator: "ulid",
		},
		Board: BoardConfig{
			DefaultStatus:   "todo",
			DefaultPriority: "medium",
			ShowDescription: true,
			ShowTags:        true,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     logDir,
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Seed.Path = strings.TrimSpace(c.Seed.Path)
	c.Storage.Backend = StorageBackend(strings.TrimSpace(strings.ToLower(string(c.Storage.Backend))))
	c.IDs.Generator = strings.TrimSpace(strings.ToLower(c.IDs.Generator))
	c.Board.DefaultStatus = strings.TrimSpace(strings.ToLower(c.Board.DefaultStatus))
	c.Board.DefaultPriority = strings.TrimSpace(strings.ToLower(c.Board.DefaultPriority))
	c.Logging.Level = strings.TrimSpace(strings.ToLower(c.Logging.Level))
	c.Logging.DevFile.Dir = strings.TrimSpace(c.Logging.DevFile.Dir)
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}
	switch c.IDs.Generator {
	case "", "ulid", "uuid":
	default:
		return fmt.Errorf("invalid ids.generator: %q", c.IDs.Generator)
	}
	if c.Board.DefaultStatus != "" && !slices.Contains(validStatuses, c.Board.DefaultStatus) {
		return fmt.Errorf("invalid board.default_status: %q", c.Board.DefaultStatus)
	}
	if c.Board.DefaultPriority != "" && !slices.Contains(validPriorities, c.Board.DefaultPriority) {
		return fmt.Errorf("invalid board.default_priority: %q", c.Board.DefaultPriority)
	}
	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with '/': %q", name, endpoint)
		}
	}
	if c.Logging.Level != "" && !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && c.Logging.DevFile.Dir == "" {
		return errors.New("logging.dev_file.dir is required when dev_file is enabled")
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
