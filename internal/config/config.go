package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/sandbox"
)

// EnvPrefix prefixes every environment override, e.g.
// CONCEPTLOOP_SANDBOX_TIMEOUT=5s.
const EnvPrefix = "CONCEPTLOOP"

type DockerConfig struct {
	Image   string `mapstructure:"image"`
	Memory  string `mapstructure:"memory"`
	Network bool   `mapstructure:"network"`
}

type SandboxConfig struct {
	Backend      string        `mapstructure:"backend"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxCallStack int           `mapstructure:"max_call_stack"`
	MaxLogLines  int           `mapstructure:"max_log_lines"`
	Docker       DockerConfig  `mapstructure:"docker"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

type CatalogConfig struct {
	// Path to a YAML catalog replacing the built-in one.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
}

// Load reads configuration from path, or from conceptloop.yaml in the
// working directory or $HOME/.conceptloop when path is empty. A missing
// search-path file is not an error. Variables from a .env file and the
// environment override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("conceptloop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.conceptloop")
	}

	defaults := sandbox.DefaultPolicy()
	v.SetDefault("sandbox.backend", "goja")
	v.SetDefault("sandbox.timeout", defaults.Timeout)
	v.SetDefault("sandbox.max_call_stack", defaults.MaxCallStack)
	v.SetDefault("sandbox.max_log_lines", defaults.MaxLogLines)
	v.SetDefault("sandbox.docker.image", defaults.Image)
	v.SetDefault("sandbox.docker.memory", defaults.MaxMemory)
	v.SetDefault("sandbox.docker.network", defaults.Network)
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("catalog.path", "")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Sandbox.Backend {
	case "goja", "docker":
	default:
		return fmt.Errorf("unknown sandbox backend: %s", c.Sandbox.Backend)
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("sandbox timeout must be positive, got %s", c.Sandbox.Timeout)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Policy returns the sandbox limits described by the configuration.
func (c *Config) Policy() sandbox.Policy {
	p := sandbox.DefaultPolicy()
	p.Timeout = c.Sandbox.Timeout
	p.MaxCallStack = c.Sandbox.MaxCallStack
	p.MaxLogLines = c.Sandbox.MaxLogLines
	if c.Sandbox.Docker.Image != "" {
		p.Image = c.Sandbox.Docker.Image
	}
	if c.Sandbox.Docker.Memory != "" {
		p.MaxMemory = c.Sandbox.Docker.Memory
	}
	p.Network = c.Sandbox.Docker.Network
	return p
}

// NewSandbox builds the configured sandbox backend.
func (c *Config) NewSandbox() (sandbox.Sandbox, error) {
	return sandbox.New(c.Sandbox.Backend, c.Policy())
}

// LoadCatalog returns the configured catalog, falling back to the built-in
// one.
func (c *Config) LoadCatalog() (*challenge.Catalog, error) {
	if c.Catalog.Path == "" {
		return challenge.Builtin(), nil
	}
	return challenge.Load(c.Catalog.Path)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
