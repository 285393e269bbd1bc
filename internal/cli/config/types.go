// Package config provides configuration management for the LeapSPARQL CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// leapsparql.yaml, then LEAPSPARQL_* environment variables, then flags
// that were explicitly set on the command line.
package config

import (
	"time"

	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

// EndpointConfig describes a named SPARQL endpoint.
type EndpointConfig struct {
	URL          string         `koanf:"url"`
	Format       string         `koanf:"format"`
	Timeout      time.Duration  `koanf:"timeout"`
	Capabilities string         `koanf:"capabilities"` // Path to a capability snapshot file
	Params       map[string]any `koanf:"params"`       // Decoded into EndpointParams
}

// EndpointParams are transport settings carried in an endpoint's params map.
type EndpointParams struct {
	Headers   map[string]string `mapstructure:"headers"`
	Username  string            `mapstructure:"username"`
	Password  string            `mapstructure:"password"`
	UserAgent string            `mapstructure:"user_agent"`
}

// LintConfig is the lint section of leapsparql.yaml.
type LintConfig = lint.Settings

// Config holds all CLI configuration options.
type Config struct {
	Endpoint     string                    `koanf:"endpoint"`
	Endpoints    map[string]EndpointConfig `koanf:"endpoints"`
	Target       string                    `koanf:"target"`
	Timeout      time.Duration             `koanf:"timeout"`
	MaxRows      int                       `koanf:"max_rows"`
	ChunkSize    int                       `koanf:"chunk_size"`
	MaxGetLength int                       `koanf:"max_get_length"`
	Format       string                    `koanf:"format"`
	OutputFormat string                    `koanf:"output"`
	Verbose      bool                      `koanf:"verbose"`
	StatePath    string                    `koanf:"state_path"`
	Capabilities string                    `koanf:"capabilities"`
	Lint         *LintConfig               `koanf:"lint"`
}

// Default configuration values.
const (
	DefaultStateFile    = ".leapsparql/state.db"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFormat       = "auto"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRows      = 10000
	DefaultChunkSize    = 1000
	DefaultMaxGetLength = 2048
)

// ResolvedEndpoint is the endpoint a command talks to after target
// selection and merging.
type ResolvedEndpoint struct {
	Name         string
	URL          string
	Format       string
	Timeout      time.Duration
	Capabilities string
	Params       EndpointParams
}
