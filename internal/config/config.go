// Package config loads runtime configuration from an optional YAML file and
// environment variables, environment winning over file, file over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/scadtools/scadrender/internal/render"
)

const (
	defaultHTTPAddr        = "127.0.0.1:8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultLogFormat       = LogFormatText
	defaultLogLevel        = slog.LevelInfo
	defaultDataDir         = "./data"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config controls HTTP boot, shutdown, and render pipeline behavior.
type Config struct {
	HTTPAddr          string
	ShutdownTimeout   time.Duration
	LogFormat         LogFormat
	LogLevel          slog.Level
	RendererBinary    string
	RendererExtraArgs []string
	RenderTimeout     time.Duration
	DataDir           string
	TempDir           string
}

// fileConfig is the YAML shape; every field is a string so that parse errors
// carry the same messages as the matching environment variables.
type fileConfig struct {
	HTTPAddr        string `yaml:"http_addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	LogFormat       string `yaml:"log_format"`
	LogLevel        string `yaml:"log_level"`
	RendererBinary  string `yaml:"renderer_binary"`
	RendererArgs    string `yaml:"renderer_args"`
	RenderTimeout   string `yaml:"render_timeout"`
	DataDir         string `yaml:"data_dir"`
	TempDir         string `yaml:"temp_dir"`
}

// Load reads runtime configuration. If SCADRENDER_CONFIG names a YAML file it
// is applied over the defaults before environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("SCADRENDER_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
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

func Default() Config {
	return Config{
		HTTPAddr:        defaultHTTPAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		LogFormat:       defaultLogFormat,
		LogLevel:        defaultLogLevel,
		RendererBinary:  render.DefaultBinary,
		RenderTimeout:   render.DefaultTimeout,
		DataDir:         defaultDataDir,
	}
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read SCADRENDER_CONFIG: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse SCADRENDER_CONFIG %q: %w", path, err)
	}

	if file.HTTPAddr != "" {
		cfg.HTTPAddr = file.HTTPAddr
	}
	if file.ShutdownTimeout != "" {
		parsed, err := parsePositiveDuration("shutdown_timeout", file.ShutdownTimeout)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = parsed
	}
	if file.LogFormat != "" {
		parsed, err := parseLogFormat(file.LogFormat)
		if err != nil {
			return err
		}
		cfg.LogFormat = parsed
	}
	if file.LogLevel != "" {
		parsed, err := parseLogLevel(file.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = parsed
	}
	if file.RendererBinary != "" {
		cfg.RendererBinary = file.RendererBinary
	}
	if file.RendererArgs != "" {
		parsed, err := parseExtraArgs(file.RendererArgs)
		if err != nil {
			return err
		}
		cfg.RendererExtraArgs = parsed
	}
	if file.RenderTimeout != "" {
		parsed, err := parsePositiveDuration("render_timeout", file.RenderTimeout)
		if err != nil {
			return err
		}
		cfg.RenderTimeout = parsed
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.TempDir != "" {
		cfg.TempDir = file.TempDir
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if addr := os.Getenv("SCADRENDER_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if timeout := strings.TrimSpace(os.Getenv("SCADRENDER_SHUTDOWN_TIMEOUT")); timeout != "" {
		parsed, err := parsePositiveDuration("SCADRENDER_SHUTDOWN_TIMEOUT", timeout)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = parsed
	}
	if format := strings.TrimSpace(os.Getenv("SCADRENDER_LOG_FORMAT")); format != "" {
		parsed, err := parseLogFormat(format)
		if err != nil {
			return err
		}
		cfg.LogFormat = parsed
	}
	if level := strings.TrimSpace(os.Getenv("SCADRENDER_LOG_LEVEL")); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			return err
		}
		cfg.LogLevel = parsed
	}
	if binary := strings.TrimSpace(os.Getenv("SCADRENDER_BINARY")); binary != "" {
		cfg.RendererBinary = binary
	}
	if extra := strings.TrimSpace(os.Getenv("SCADRENDER_EXTRA_ARGS")); extra != "" {
		parsed, err := parseExtraArgs(extra)
		if err != nil {
			return err
		}
		cfg.RendererExtraArgs = parsed
	}
	if timeout := strings.TrimSpace(os.Getenv("SCADRENDER_TIMEOUT")); timeout != "" {
		parsed, err := parsePositiveDuration("SCADRENDER_TIMEOUT", timeout)
		if err != nil {
			return err
		}
		cfg.RenderTimeout = parsed
	}
	if dir := strings.TrimSpace(os.Getenv("SCADRENDER_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}
	if dir := strings.TrimSpace(os.Getenv("SCADRENDER_TEMP_DIR")); dir != "" {
		cfg.TempDir = dir
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("validate config: HTTP address is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("validate config: shutdown timeout must be > 0")
	}
	if strings.TrimSpace(c.RendererBinary) == "" {
		return errors.New("validate config: renderer binary is required")
	}
	if c.RenderTimeout <= 0 {
		return errors.New("validate config: render timeout must be > 0")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("validate config: data directory is required")
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf(
			"validate config: unsupported log format %q (allowed: %q, %q)",
			c.LogFormat,
			LogFormatText,
			LogFormatJSON,
		)
	}

	switch c.LogLevel {
	case slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError:
	default:
		return fmt.Errorf("validate config: unsupported log level %q", c.LogLevel.String())
	}

	return nil
}

func parsePositiveDuration(name, input string) (time.Duration, error) {
	parsed, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("parse %s: value must be > 0", name)
	}
	return parsed, nil
}

func parseExtraArgs(input string) ([]string, error) {
	args, err := shlex.Split(input)
	if err != nil {
		return nil, fmt.Errorf("parse renderer extra args %q: %w", input, err)
	}
	return args, nil
}

func parseLogFormat(input string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf(
			"parse log format: unsupported value %q (allowed: %q, %q)",
			input,
			LogFormatText,
			LogFormatJSON,
		)
	}
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf(
			"parse log level: unsupported value %q (allowed: %q, %q, %q, %q)",
			input,
			slog.LevelDebug.String(),
			slog.LevelInfo.String(),
			slog.LevelWarn.String(),
			slog.LevelError.String(),
		)
	}
}
