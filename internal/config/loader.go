package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config drives the doorcheck host tool: where to listen, which door to
// launch, where to log, and where session history lands.
type Config struct {
	LoadedFiles []string        `yaml:"-"` // Track all files loaded for this config
	Include     []string        `yaml:"include"`
	Debug       bool            `yaml:"debug"`
	HotReload   bool            `yaml:"hotReload"`
	Paths       PathsConfig     `yaml:"paths"`
	Loggers     []LoggerConfig  `yaml:"loggers"`
	Listeners   ListenersConfig `yaml:"listeners"`
	Door        DoorConfig      `yaml:"door"`
}

type PathsConfig struct {
	Data string `yaml:"data"`
	Art  string `yaml:"art"`
}

type LoggerConfig struct {
	Stdout     bool   `yaml:"stdout,omitempty"`
	File       string `yaml:"file,omitempty"`
	Level      string `yaml:"level"`
	Source     bool   `yaml:"source"`
	HideTime   bool   `yaml:"hideTime,omitempty"`
	TimeFormat string `yaml:"timeFormat,omitempty"`
}

type ListenersConfig struct {
	Telnet    ListenerConfig `yaml:"telnet"`
	WebSocket ListenerConfig `yaml:"websocket"`
}

type ListenerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Port    int    `yaml:"port"`
}

// DoorConfig names the door command the test host launches for each
// accepted connection.
type DoorConfig struct {
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	Dropfile string   `yaml:"dropfile"` // directory the DOOR32.SYS lands in
	MaxTime  int      `yaml:"maxTime"`  // minutes granted per session
}

// Load reads filename and every file its include chain names, later
// files overriding earlier ones. Environment variables expand anywhere
// in the YAML.
func Load(filename string) (*Config, error) {
	cfg := &Config{
		LoadedFiles: []string{},
	}

	// Keep track of processed files to avoid infinite loops
	processed := make(map[string]bool)

	if err := loadRecursive(filename, cfg, processed); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRecursive(filename string, cfg *Config, processed map[string]bool) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	if processed[absPath] {
		return nil // Already processed
	}
	processed[absPath] = true
	cfg.LoadedFiles = append(cfg.LoadedFiles, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Pull the include list first so included files form the base.
	var tempCfg struct {
		Include []string `yaml:"include"`
	}
	if err := yaml.Unmarshal(expandedData, &tempCfg); err != nil {
		return err
	}

	baseDir := filepath.Dir(absPath)
	for _, includePath := range tempCfg.Include {
		// Resolve relative paths relative to the current config file
		fullPath := includePath
		if !filepath.IsAbs(includePath) {
			fullPath = filepath.Join(baseDir, includePath)
		}

		if err := loadRecursive(fullPath, cfg, processed); err != nil {
			return fmt.Errorf("failed to load included config %s: %w", fullPath, err)
		}
	}

	// Now apply the current file's configuration over the accumulated config
	return yaml.Unmarshal(expandedData, cfg)
}
