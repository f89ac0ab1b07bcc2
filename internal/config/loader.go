package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoaderOption is a functional option for configuring the Loader.
type LoaderOption func(*Loader)

// WithLookup replaces the process environment as the variable source.
func WithLookup(lookup LookupFunc) LoaderOption {
	return func(l *Loader) {
		l.lookup = lookup
	}
}

// WithEnvFiles sets the .env files read before the environment is
// consulted. Missing files are skipped. Variables already present in the
// environment take precedence over file values.
func WithEnvFiles(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.envFiles = paths
	}
}

// Loader assembles a Config from defaults, a YAML file and the
// environment.
type Loader struct {
	lookup   LookupFunc
	envFiles []string
	dotenv   map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads the configuration with the process environment and ./.env.
func Load(path string) (*Config, error) {
	return NewLoader(WithEnvFiles(".env")).Load(path)
}

// Load reads the YAML file at path, if any, applies environment
// overrides and validates the result. An empty path skips the file.
func (l *Loader) Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return l.load(data)
}

// LoadFromReader loads configuration from an io.Reader.
func (l *Loader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return l.load(data)
}

func (l *Loader) load(data []byte) (*Config, error) {
	if err := l.readEnvFiles(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := l.parseYAML(data, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, l.getenv); err != nil {
		return nil, err
	}
	cfg.Environment = NormalizeEnvironment(cfg.Environment)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readEnvFiles reads the configured .env files. Earlier files win.
func (l *Loader) readEnvFiles() error {
	l.dotenv = make(map[string]string)
	for _, path := range l.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		for k, v := range values {
			if _, exists := l.dotenv[k]; !exists {
				l.dotenv[k] = v
			}
		}
	}
	return nil
}

// getenv resolves a variable from the environment, then the .env files.
func (l *Loader) getenv(key string) (string, bool) {
	if value, ok := l.lookup(key); ok {
		return value, true
	}
	value, ok := l.dotenv[key]
	return value, ok
}

// parseYAML decodes data over cfg. Unknown keys are rejected.
func (l *Loader) parseYAML(data []byte, cfg *Config) error {
	content := l.substituteEnvVars(string(data))
	if strings.TrimSpace(content) == "" {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns. "$$"
// escapes a literal dollar sign.
func (l *Loader) substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		if value, exists := l.getenv(submatches[1]); exists {
			return value
		}
		if len(submatches) >= 3 {
			return submatches[2]
		}
		return ""
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}
