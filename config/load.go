package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-directory config file name.
const FileName = ".ecl.yaml"

// ErrNotFound is returned by LoadWithPath when no config file exists in
// any of the searched locations.
var ErrNotFound = errors.New("no config file found")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations, and returns
// Defaults() when none of them has a file.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data, getenv)
	if err != nil {
		return nil, "", err
	}
	cfg.BaseDir = filepath.Dir(absPath)

	// Resolve relative history path
	if h := cfg.REPL.HistoryFile; h != "" && !filepath.IsAbs(h) {
		cfg.REPL.HistoryFile = filepath.Join(cfg.BaseDir, h)
	}

	return cfg, absPath, nil
}

// Parse decodes YAML config data over Defaults() and validates it.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Parser.MaxLength < 0 {
		errs = append(errs, fmt.Sprintf("parser.max_length: %d (must be 0 or more)", cfg.Parser.MaxLength))
	}
	if cfg.Parser.MaxDepth < 0 {
		errs = append(errs, fmt.Sprintf("parser.max_depth: %d (must be 0 or more)", cfg.Parser.MaxDepth))
	}
	if cfg.Format.Width < 20 {
		errs = append(errs, fmt.Sprintf("format.width: %d (must be at least 20)", cfg.Format.Width))
	}
	if strings.TrimLeft(cfg.Format.Indent, " \t") != "" {
		errs = append(errs, fmt.Sprintf("format.indent: %q (must be spaces or tabs)", cfg.Format.Indent))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Output.Format] {
		errs = append(errs, fmt.Sprintf("invalid output format: %s (must be json or text)", cfg.Output.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > ECL_CONFIG env > ./.ecl.yaml > ~/.config/ecl/ecl.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("ECL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("ECL_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "ecl", "ecl.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("%w (tried ECL_CONFIG, %s, ~/.config/ecl/ecl.yaml)", ErrNotFound, FileName)
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}
