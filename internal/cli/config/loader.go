package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "LEAPSPARQL_"

var configFileNames = []string{"leapsparql.yaml", "leapsparql.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps flag names whose config key differs from the snake_cased name.
var flagKeys = map[string]string{
	"state": "state_path",
}

// findConfigFile searches startDir and its parents for a leapsparql config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigFile(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute, or in-memory.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"format":         DefaultFormat,
		"timeout":        DefaultTimeout.String(),
		"max_rows":       DefaultMaxRows,
		"chunk_size":     DefaultChunkSize,
		"max_get_length": DefaultMaxGetLength,
		"state_path":     DefaultStateFile,
		"verbose":        false,
		"output":         DefaultOutput,
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional named endpoint
// selected as the target.
func LoadConfigWithTarget(cfgFile string, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// Paths given as flags are relative to the working directory; paths from
	// the config file are relative to the file.
	var flagStatePath string
	if flags != nil && flags.Changed("state") {
		if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
			flagStatePath, _ = filepath.Abs(v)
		} else {
			flagStatePath = v
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = cfgFile
	if configFileUsed == "" {
		if cwd, err := os.Getwd(); err == nil {
			configFileUsed = findConfigFile(cwd)
		}
	}
	baseDir, _ := os.Getwd()
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (LEAPSPARQL_ prefix)
	// Transform: LEAPSPARQL_MAX_ROWS -> max_rows
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, baseDir)
	}
	cfg.Capabilities = resolvePathRelativeTo(cfg.Capabilities, baseDir)
	for name, ep := range cfg.Endpoints {
		ep.Capabilities = resolvePathRelativeTo(ep.Capabilities, baseDir)
		cfg.Endpoints[name] = ep
	}

	if targetOverride != "" {
		cfg.Target = targetOverride
	}
	if cfg.Target != "" {
		if _, ok := cfg.Endpoints[cfg.Target]; !ok {
			return nil, &UnknownEndpointError{Name: cfg.Target, Known: cfg.EndpointNames()}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// Validate checks value ranges that the decoder cannot.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative, got %d", c.MaxRows)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", c.ChunkSize)
	}
	return nil
}

// UnknownEndpointError is returned when a target names no configured endpoint.
type UnknownEndpointError struct {
	Name  string
	Known []string
}

func (e *UnknownEndpointError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown endpoint %q: no endpoints are configured", e.Name)
	}
	return fmt.Sprintf("unknown endpoint %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// EndpointNames returns the configured endpoint names, sorted.
func (c *Config) EndpointNames() []string {
	names := make([]string, 0, len(c.Endpoints))
	for name := range c.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveEndpoint returns the endpoint commands should use.
//
// The named target supplies defaults. A plain endpoint URL (flag, env or
// file) overrides the target's URL; if it instead matches a configured
// name, that endpoint is used. Global format and timeout fill whatever the
// endpoint leaves unset.
func (c *Config) ResolveEndpoint() (*ResolvedEndpoint, error) {
	name := c.Target
	url := c.Endpoint
	if _, ok := c.Endpoints[url]; ok && url != "" {
		name, url = url, ""
	}

	resolved := &ResolvedEndpoint{
		Name:         name,
		Format:       c.Format,
		Timeout:      c.Timeout,
		Capabilities: c.Capabilities,
	}
	if name != "" {
		ep, ok := c.Endpoints[name]
		if !ok {
			return nil, &UnknownEndpointError{Name: name, Known: c.EndpointNames()}
		}
		resolved = MergeEndpointConfig(resolved, name, ep)
		params, err := DecodeParams(ep.Params)
		if err != nil {
			return nil, fmt.Errorf("invalid params for endpoint %s: %w", name, err)
		}
		resolved.Params = params
	}
	if url != "" {
		resolved.URL = url
	}
	if resolved.URL == "" {
		return nil, fmt.Errorf("no endpoint configured\nHint: pass --endpoint URL or define endpoints in leapsparql.yaml")
	}
	resolved.URL = expandEnvVars(resolved.URL)
	return resolved, nil
}

// MergeEndpointConfig applies a named endpoint over base, with the
// endpoint's non-zero fields taking precedence.
func MergeEndpointConfig(base *ResolvedEndpoint, name string, override EndpointConfig) *ResolvedEndpoint {
	merged := *base
	merged.Name = name
	if override.URL != "" {
		merged.URL = override.URL
	}
	if override.Format != "" {
		merged.Format = override.Format
	}
	if override.Timeout != 0 {
		merged.Timeout = override.Timeout
	}
	if override.Capabilities != "" {
		merged.Capabilities = override.Capabilities
	}
	return &merged
}

// DecodeParams decodes an endpoint's params map and expands ${VAR}
// references in credentials and headers.
func DecodeParams(raw map[string]any) (EndpointParams, error) {
	var params EndpointParams
	if len(raw) == 0 {
		return params, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &params,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return params, err
	}
	if err := dec.Decode(raw); err != nil {
		return params, err
	}

	params.Username = expandEnvVars(params.Username)
	params.Password = expandEnvVars(params.Password)
	for name, value := range params.Headers {
		params.Headers[name] = expandEnvVars(value)
	}
	return params, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithTarget is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
