package mcp

// ToggleTilingInput is the input for the toggle_tiling tool.
type ToggleTilingInput struct{}

// TilingStatusInput is the input for the tiling_status tool.
type TilingStatusInput struct{}

// StatusOutput mirrors the daemon's tiling status for tool responses.
type StatusOutput struct {
	Enabled       bool    `json:"enabled" jsonschema:"Whether tiling is active on the current workspace"`
	Workspace     int     `json:"workspace" jsonschema:"Current workspace index"`
	Monitor       int     `json:"monitor" jsonschema:"Monitor the tiled layout occupies"`
	MasterRatio   float64 `json:"master_ratio" jsonschema:"Fraction of the work area width given to the master window"`
	Tiled         int     `json:"tiled" jsonschema:"Number of windows currently tiled"`
	Overflow      int     `json:"overflow" jsonschema:"Number of windows minimized because they did not fit"`
	UptimeSeconds int64   `json:"uptime_seconds" jsonschema:"Daemon uptime in seconds"`
}

// SetMasterRatioInput is the input for the set_master_ratio tool.
type SetMasterRatioInput struct {
	Ratio float64 `json:"ratio" jsonschema:"required,Master area width as a fraction of the work area, between 0.2 and 0.8"`
}

// AdjustMasterRatioInput is the input for the adjust_master_ratio tool.
type AdjustMasterRatioInput struct {
	Increase bool `json:"increase" jsonschema:"required,Grow the master area when true, shrink it when false"`
}

// DirectionInput is the input for the focus_direction and swap_direction tools.
type DirectionInput struct {
	Direction string `json:"direction" jsonschema:"required,One of left, right, up, down"`
}

// ActionOutput reports the result of a directional or toggle action.
type ActionOutput struct {
	Done bool `json:"done" jsonschema:"True when the action was applied"`
}
