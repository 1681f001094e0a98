package dto

import "time"

type EventFilters struct {
	OwnerID   string
	ItemID    string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
