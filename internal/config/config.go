package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	Python        string `json:"python"`
	DriverPath    string `json:"driver_path"`
	Tool          string `json:"tool"`
	KillTool      string `json:"kill_tool"`
	Npm           string `json:"npm"`
	Runtime       string `json:"runtime"`
	WatchSchedule string `json:"watch_schedule"`
	Device        struct {
		EnableRemote    bool     `json:"enableRemote"`
		RemoteAddresses []string `json:"remoteAddresses"`
	} `json:"device"`
	Output struct {
		Log              bool   `json:"log"`
		SaveScriptAndLog bool   `json:"saveScriptAndLog"`
		SaveDirectory    string `json:"saveDirectory"`
	} `json:"output"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".fridacode"),
		LogLevel:      "info",
		Python:        "python3",
		Tool:          "frida",
		KillTool:      "frida-kill",
		Npm:           "npm",
		Runtime:       "v8",
		WatchSchedule: "@every 5s",
	}
	cfg.DriverPath = filepath.Join(cfg.DataDir, "backend", "driver.py")
	cfg.Device.RemoteAddresses = []string{}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if rt := os.Getenv("FRIDACODE_RUNTIME"); rt != "" {
		cfg.Runtime = rt
	}
	if dir := os.Getenv("FRIDACODE_SAVE_DIR"); dir != "" {
		cfg.Output.SaveDirectory = dir
	}
	if py := os.Getenv("FRIDACODE_PYTHON"); py != "" {
		cfg.Python = py
	}
	if driver := os.Getenv("FRIDACODE_DRIVER"); driver != "" {
		cfg.DriverPath = driver
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Runtime {
	case "", "v8", "duk":
	default:
		return fmt.Errorf("invalid runtime %q: must be v8 or duk", c.Runtime)
	}
	return nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg into the generic nested map form of its JSON encoding.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns cfg as a flat dot-separated map.
func ListValues(cfg *Config) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	return Flatten(m), nil
}

// GetValue loads the config file at path (creating it with defaults when
// missing) and returns the value stored under the dot-separated key.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	flat, err := readFlat(path)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue stores value under key in the existing config file at path. The
// value is decoded as JSON when possible (numbers, booleans, arrays) and kept
// as a string otherwise. Unknown keys and values the config would reject on
// the next Load are refused and the file is left untouched.
func SetValue(path, key, value string) error {
	known, err := ListValues(Default())
	if err != nil {
		return err
	}
	if _, ok := known[key]; !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	flat, err := readFlat(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	flat[key] = parsed

	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	check := Default()
	if err := json.Unmarshal(data, check); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := check.Validate(); err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func readFlat(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return Flatten(m), nil
}
