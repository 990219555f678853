package model

import (
	"encoding/json"
	"time"
)

// Config is a key-value configuration record stored as JSONB.
// Keys use the format "{namespace}:{name}" (e.g. "grid:mine", "board:default").
type Config struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GridView is the value stored under a "grid:{name}" config key: a saved set
// of expanded task IDs for the grid view.
type GridView struct {
	ProjectID string   `json:"project_id,omitempty"`
	Expanded  []string `json:"expanded"`
}

// GridViewKey returns the config key a named grid view is stored under.
func GridViewKey(name string) string {
	return "grid:" + name
}
