package dto

import "time"

type InventoryFilters struct {
	OwnerID   string
	Query     string   // matches name, category or location
	ItemIDs   []string // restricts to these ids, e.g. search hits
	Category  string
	Location  string
	Container string
	Unit      string
	Expired   bool       // expiry_date before Today
	ExpiresBy *time.Time // expiry_date on or before this date
	LowStock  bool       // quantity <= min_stock
	Today     time.Time
	Page      int
	PageSize  int
}
