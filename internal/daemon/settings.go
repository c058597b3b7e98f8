package daemon

import (
	"sync"

	"github.com/1broseidon/stacktile/internal/config"
	"github.com/1broseidon/stacktile/internal/engine"
)

// Settings adapts the on-disk configuration to the engine's settings
// surface. Ratio changes are written back so they survive restarts.
type Settings struct {
	mu   sync.Mutex
	cfg  *config.Config
	path string
}

// NewSettings wraps cfg, persisting changes to path.
func NewSettings(cfg *config.Config, path string) *Settings {
	return &Settings{cfg: cfg, path: path}
}

// TilingParams returns the current layout parameters.
func (s *Settings) TilingParams() (engine.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return engine.Params{
		MasterRatio:    s.cfg.MasterRatio,
		Gap:            s.cfg.GapSize,
		MinStackWidth:  s.cfg.MinStackWidth,
		MinStackHeight: s.cfg.MinStackHeight,
	}, nil
}

// SetMasterRatio updates the ratio and writes the config file.
func (s *Settings) SetMasterRatio(ratio float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.MasterRatio = ratio
	if s.path == "" {
		return s.cfg.Save()
	}
	return s.cfg.SaveTo(s.path)
}

// Reload swaps in a freshly loaded configuration.
func (s *Settings) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Config returns the current configuration snapshot.
func (s *Settings) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
