package daemon

import (
	"path/filepath"
	"testing"

	"github.com/1broseidon/stacktile/internal/config"
)

func TestSettings_SetMasterRatioPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s := NewSettings(config.DefaultConfig(), path)

	if err := s.SetMasterRatio(0.65); err != nil {
		t.Fatalf("SetMasterRatio: %v", err)
	}

	params, err := s.TilingParams()
	if err != nil {
		t.Fatalf("TilingParams: %v", err)
	}
	if params.MasterRatio != 0.65 {
		t.Fatalf("MasterRatio = %v, want 0.65", params.MasterRatio)
	}

	reloaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if reloaded.MasterRatio != 0.65 {
		t.Fatalf("persisted MasterRatio = %v, want 0.65", reloaded.MasterRatio)
	}
}

func TestSettings_ReloadSwapsConfig(t *testing.T) {
	s := NewSettings(config.DefaultConfig(), "")

	next := config.DefaultConfig()
	next.GapSize = 24
	s.Reload(next)

	params, err := s.TilingParams()
	if err != nil {
		t.Fatalf("TilingParams: %v", err)
	}
	if params.Gap != 24 {
		t.Fatalf("Gap = %d, want 24", params.Gap)
	}
}
