package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds per-project reviewer settings.
type Config struct {
	// BaseBranch is the default comparison base for branch mode.
	// Empty means auto-detect (origin/HEAD, then main/master).
	BaseBranch string `toml:"base_branch"`

	// Agent and Model attribute the changeset under review to the tool
	// that produced it. Recorded on each session.
	Agent string `toml:"agent"`
	Model string `toml:"model"`

	// ContextLines is how many surrounding lines are captured with each
	// comment.
	ContextLines int `toml:"context_lines"`

	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ContextLines: 3,
		LogLevel:     "info",
	}
}

// ProjectDataDir returns the per-project data directory.
// Uses AIREV_DATA_DIR env var if set, otherwise <repoRoot>/.airev
func ProjectDataDir(repoRoot string) string {
	if dir := os.Getenv("AIREV_DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(repoRoot, ".airev")
}

// Path returns the config file path for a repository.
func Path(repoRoot string) string {
	return filepath.Join(ProjectDataDir(repoRoot), "config.toml")
}

// LogPath returns the log file path for a repository.
func LogPath(repoRoot string) string {
	return filepath.Join(ProjectDataDir(repoRoot), "airev.log")
}

// Load loads the project configuration, falling back to defaults when the
// file does not exist.
func Load(repoRoot string) (*Config, error) {
	return LoadFrom(Path(repoRoot))
}

// LoadFrom loads the configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.ContextLines < 0 {
		cfg.ContextLines = 0
	}

	return cfg, nil
}

// Save writes the configuration to the project config path.
func Save(repoRoot string, cfg *Config) error {
	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
