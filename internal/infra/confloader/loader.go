// Package confloader loads the server configuration in layers. File values
// override compiled defaults, and environment variables override the file,
// so a deployment can pin a single setting through TABLESYNC_* variables
// without editing config.yaml.
//
// @design DS-0502
package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix marks the environment variables the loader reads.
const DefaultEnvPrefix = "TABLESYNC_"

// Loader merges a YAML file and the environment into a config struct.
type Loader struct {
	envPrefix string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithConfigFile sets the YAML file to load. Without it only environment
// variables apply.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the configured file, then the environment, and unmarshals the
// merged result into target. target keeps any field neither source names,
// so callers pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", l.filePath, err)
		}
	}

	if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal configuration: %w", err)
	}
	return nil
}

// envKey maps TABLESYNC_SERVER_HTTP_ADDR to server.http.addr.
func (l *Loader) envKey(name string) string {
	name = strings.TrimPrefix(name, l.envPrefix)
	return strings.ReplaceAll(strings.ToLower(name), "_", ".")
}
