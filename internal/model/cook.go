package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CookLine struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	ItemID   *string         `json:"item_id"`
	Used     decimal.Decimal `json:"used"`
}

// CookLines is stored as a JSON document in a single column.
type CookLines []CookLine

func (l CookLines) Value() (driver.Value, error) {
	if l == nil {
		l = CookLines{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CookLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = CookLines{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	}
	return errors.New("unsupported type for cook lines")
}

type CookHistory struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	Lines     CookLines `db:"lines" json:"items"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ConsumedCount is the number of lines that actually drew down stock.
func (h *CookHistory) ConsumedCount() int {
	n := 0
	for _, l := range h.Lines {
		if l.Used.IsPositive() {
			n++
		}
	}
	return n
}
