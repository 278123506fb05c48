package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// envPrefix namespaces every environment override. Only GITHUB_TOKEN is read
// without it.
const envPrefix = "PROJECTINDEX_"

// envKeys holds every section.field key, taken from the koanf tags on Config.
var envKeys = koanfKeys(reflect.TypeOf(Config{}))

func koanfKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			if tag := section.Type.Field(j).Tag.Get("koanf"); tag != "" {
				keys[section.Tag.Get("koanf")+"."+tag] = true
			}
		}
	}
	return keys
}

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables, then fills defaults and validates.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GITHUB_TOKEN, PROJECTINDEX_SERVER_HTTP_PORT, ...)
//  2. YAML config file (~/.config/projectindex/config.yaml)
//  3. Hardcoded defaults
//
// A missing file is not an error. An existing file must live in
// ~/.config/projectindex/ or /etc/projectindex/, be at most 1MB, and have
// 0600 or 0400 permissions, since it may hold the GitHub token.
//
// Environment variables carry the PROJECTINDEX_ prefix and map to keys by
// splitting on the first underscore after it:
//
//	PROJECTINDEX_SERVER_HTTP_PORT     -> server.http_port
//	PROJECTINDEX_STORE_FALLBACK_PATH  -> store.fallback_path
//	GITHUB_TOKEN                      -> github.token
//
// Variables that do not name a known key are ignored, so CI variables such
// as GITHUB_PATH never reach the configuration.
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if content, err := readConfigFile(configPath); err != nil {
		return nil, err
	} else if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps PROJECTINDEX_SECTION_FIELD_NAME to section.field_name, or ""
// to skip.
func envKey(s string) string {
	if s == "GITHUB_TOKEN" {
		return "github.token"
	}
	if !strings.HasPrefix(s, envPrefix) {
		return ""
	}
	parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", 2)
	if len(parts) != 2 {
		return ""
	}
	key := parts[0] + "." + parts[1]
	if !envKeys[key] {
		return ""
	}
	return key
}

// readConfigFile returns nil content when the file does not exist.
// The file is opened once and validated through the descriptor to avoid a
// stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "projectindex"), nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so a link cannot escape the allowed directories.
	resolved := resolveSymlinks(absPath)

	userDir, err := defaultConfigDir()
	if err != nil {
		return err
	}

	for _, dir := range []string{userDir, "/etc/projectindex"} {
		dir = resolveSymlinks(dir)
		if resolved == dir || strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/projectindex/ or /etc/projectindex/")
}

// resolveSymlinks resolves path, or its parent when path does not exist yet.
func resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if parent, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(parent, filepath.Base(path))
	}
	return path
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
