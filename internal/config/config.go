// Package config holds the user-tunable tiling parameters and the hotkey
// bindings, persisted as YAML under ~/.config/stacktile/.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Master-ratio bounds and adjustment step. The ratio is clamped on load and
// on every adjustment so a hand-edited config cannot push the layout into a
// degenerate shape.
const (
	MinMasterRatio = 0.2
	MaxMasterRatio = 0.8
	RatioStep      = 0.05
)

// Hotkeys binds key chords to tiling actions. Chord syntax follows the X11
// modifier naming ("Mod4-t" is Super+T).
type Hotkeys struct {
	Toggle      string `yaml:"toggle"`
	RatioGrow   string `yaml:"ratio_grow"`
	RatioShrink string `yaml:"ratio_shrink"`
	FocusLeft   string `yaml:"focus_left"`
	FocusRight  string `yaml:"focus_right"`
	FocusUp     string `yaml:"focus_up"`
	FocusDown   string `yaml:"focus_down"`
	SwapLeft    string `yaml:"swap_left"`
	SwapRight   string `yaml:"swap_right"`
	SwapUp      string `yaml:"swap_up"`
	SwapDown    string `yaml:"swap_down"`
}

// Config holds the application configuration.
type Config struct {
	MasterRatio    float64 `yaml:"master_ratio"`
	GapSize        int     `yaml:"gap_size"`
	MinStackWidth  int     `yaml:"min_stack_width"`
	MinStackHeight int     `yaml:"min_stack_height"`
	// ReconcileInterval is the daemon's drift-check period in seconds.
	ReconcileInterval int     `yaml:"reconcile_interval"`
	Hotkeys           Hotkeys `yaml:"hotkeys"`
	LogLevel          string  `yaml:"log_level"`
	Display           string  `yaml:"display,omitempty"`
	XAuthority        string  `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		MasterRatio:       0.5,
		GapSize:           10,
		MinStackWidth:     500,
		MinStackHeight:    350,
		ReconcileInterval: 2,
		Hotkeys: Hotkeys{
			Toggle:      "Mod4-t",
			RatioGrow:   "Mod4-equal",
			RatioShrink: "Mod4-minus",
			FocusLeft:   "Mod4-h",
			FocusRight:  "Mod4-l",
			FocusUp:     "Mod4-k",
			FocusDown:   "Mod4-j",
			SwapLeft:    "Mod4-Shift-h",
			SwapRight:   "Mod4-Shift-l",
			SwapUp:      "Mod4-Shift-k",
			SwapDown:    "Mod4-Shift-j",
		},
		LogLevel: "info",
	}
}

// ValidationError carries the YAML path of the offending field.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "stacktile", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults; a malformed or invalid file is an error.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path, filling
// unset fields from the defaults and clamping the master ratio into its
// working band.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.MasterRatio = ClampRatio(cfg.MasterRatio)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.MasterRatio < MinMasterRatio || c.MasterRatio > MaxMasterRatio {
		return &ValidationError{Path: "master_ratio", Err: fmt.Errorf("must be between %.2f and %.2f", MinMasterRatio, MaxMasterRatio)}
	}
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("must be >= 0")}
	}
	if c.MinStackWidth < 1 {
		return &ValidationError{Path: "min_stack_width", Err: fmt.Errorf("must be >= 1")}
	}
	if c.MinStackHeight < 1 {
		return &ValidationError{Path: "min_stack_height", Err: fmt.Errorf("must be >= 1")}
	}
	if c.ReconcileInterval < 1 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("must be >= 1")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("must be one of: debug, info, warning, error")}
	}
	if c.Hotkeys.Toggle == "" {
		return &ValidationError{Path: "hotkeys.toggle", Err: fmt.Errorf("toggle hotkey is required")}
	}
	return nil
}

// ClampRatio pins a ratio into the working band.
func ClampRatio(r float64) float64 {
	if r < MinMasterRatio {
		return MinMasterRatio
	}
	if r > MaxMasterRatio {
		return MaxMasterRatio
	}
	return r
}

// applyDefaults fills zero-valued fields a partial YAML file left unset.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MasterRatio == 0 {
		c.MasterRatio = def.MasterRatio
	}
	if c.MinStackWidth == 0 {
		c.MinStackWidth = def.MinStackWidth
	}
	if c.MinStackHeight == 0 {
		c.MinStackHeight = def.MinStackHeight
	}
	if c.ReconcileInterval == 0 {
		c.ReconcileInterval = def.ReconcileInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Hotkeys.Toggle == "" {
		c.Hotkeys = def.Hotkeys
	}
}
