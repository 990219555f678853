package model

// TaskFilter holds criteria for querying tasks.
type TaskFilter struct {
	ProjectID string     `json:"project_id,omitempty"`
	Status    []Status   `json:"status,omitempty"`
	Type      []TaskType `json:"type,omitempty"`
	Assignee  string     `json:"assignee,omitempty"`
	ParentID  *string    `json:"parent_id,omitempty"` // "" matches root-level tasks
	Search    string     `json:"search,omitempty"`    // substring match on title/description
	Sort      string     `json:"sort,omitempty"`      // e.g. "-priority", "position"; prefix "-" = descending
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}
