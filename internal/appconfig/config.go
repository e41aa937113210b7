package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultMaxRetries is used when config.json is absent or omits
	// the key.
	DefaultMaxRetries = 3
	// DefaultBackoffBase is used when config.json is absent or omits
	// the key.
	DefaultBackoffBase = 2

	configFileName = "config.json"
	dbFileName     = "queue.db"
	pidFileName    = "worker.pid"
	homeEnvVar     = "JOBQ_HOME"
	defaultDirName = ".jobq"
)

// Config is the persisted configuration of the queue: the default
// retry ceiling and the exponential-backoff base.
type Config struct {
	MaxRetries  uint32 `json:"max_retries"`
	BackoffBase uint32 `json:"backoff_base"`
}

// Dir resolves the per-user state directory. JOBQ_HOME overrides the
// default of ~/.jobq if set. The directory is created if absent.
func Dir() (string, error) {
	if custom := os.Getenv(homeEnvVar); custom != "" {
		if err := os.MkdirAll(custom, 0o755); err != nil {
			return "", fmt.Errorf("create state dir: %w", err)
		}
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, defaultDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to config.json under dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// DBPath returns the path to the SQLite backing file under dir.
func DBPath(dir string) string {
	return filepath.Join(dir, dbFileName)
}

// PIDPath returns the path to the supervisor lock file under dir.
func PIDPath(dir string) string {
	return filepath.Join(dir, pidFileName)
}

// Load reads config.json from dir, applying defaults for missing
// keys. If the file does not exist, Load returns the default
// configuration without error. Unknown keys present in the file are
// preserved and re-written verbatim by Save.
func Load(dir string) (Config, map[string]any, error) {
	cfg := Config{MaxRetries: DefaultMaxRetries, BackoffBase: DefaultBackoffBase}
	raw := map[string]any{}

	data, err := os.ReadFile(ConfigPath(dir))
	if os.IsNotExist(err) {
		return cfg, raw, nil
	}
	if err != nil {
		return cfg, raw, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		// A corrupt config file falls back to defaults rather than
		// becoming fatal: a bad config.json should not block enqueue
		// or worker start, only lose the overrides it failed to parse.
		return cfg, map[string]any{}, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{MaxRetries: DefaultMaxRetries, BackoffBase: DefaultBackoffBase}, raw, nil
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	return cfg, raw, nil
}

// Save writes cfg back to config.json under dir, merging it on top of
// raw so that keys unknown to Config survive the round trip.
func Save(dir string, cfg Config, raw map[string]any) error {
	merged := map[string]any{}
	for k, v := range raw {
		merged[k] = v
	}
	merged["max_retries"] = cfg.MaxRetries
	merged["backoff_base"] = cfg.BackoffBase

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
