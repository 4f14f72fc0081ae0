package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the Transifex REST API.
type API struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
	// RequestsPerSecond bounds client-side request rate to stay under the
	// platform throttle.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxRetries        int     `toml:"max_retries"`
}

// Selection describes which organization content to synchronize.
type Selection struct {
	Organization string   `toml:"organization"`
	Projects     []string `toml:"projects"`
	Languages    []string `toml:"languages"`
}

// Download contains options passed through to the tx CLI pull invocations.
type Download struct {
	Mode            string `toml:"mode"`
	TranslationMode string `toml:"translation_mode"`
	MinimumPerc     int    `toml:"minimum_perc"`
	Workers         int    `toml:"workers"`
	SkipOnError     bool   `toml:"skip_on_error"`
	ForceDownload   bool   `toml:"force_download"`
	// SkipExistingFiles skips files already present on disk. This is a
	// filesystem presence check only; stale partial files are not redetected.
	// Use force_download to re-fetch everything.
	SkipExistingFiles bool   `toml:"skip_existing_files"`
	FileFilter        string `toml:"file_filter"`
	AddRemoteTimeout  int    `toml:"add_remote_timeout"`
	PullTimeout       int    `toml:"pull_timeout"`
}

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	HistoryDir string `toml:"history_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for txbulk.
type Config struct {
	API       API       `toml:"api"`
	Selection Selection `toml:"selection"`
	Download  Download  `toml:"download"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/txbulk/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, and the API token
// resolved from the environment when the file leaves it blank.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("txbulk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and history directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.HistoryDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TxBinary returns the Transifex CLI executable name.
func (c *Config) TxBinary() string {
	return "tx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
