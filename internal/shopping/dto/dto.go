package dto

import "github.com/fekuna/pantry-service/internal/model"

type TaskFilters struct {
	OwnerID  string
	Status   string
	Source   string
	Page     int
	PageSize int
}

// Summary counts pending tasks by where they came from.
type Summary struct {
	Pending  int                 `json:"pending"`
	Done     int                 `json:"done"`
	BySource []model.SourceCount `json:"by_source"`
}
