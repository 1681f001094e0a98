package dto

type HistoryFilters struct {
	OwnerID  string
	Page     int
	PageSize int
}
