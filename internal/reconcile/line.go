package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/model"
)

// RawQuantity holds a quantity exactly as the caller sent it, JSON number or
// string, so a malformed value fails only its own line.
type RawQuantity string

func (q *RawQuantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = ""
		return nil
	}
	*q = RawQuantity(strings.Trim(string(b), `"`))
	return nil
}

// Quantity formats d for a RawLine.
func Quantity(d decimal.Decimal) RawQuantity {
	return RawQuantity(d.String())
}

// RawLine is a batch entry as received from a caller.
type RawLine struct {
	Name       string      `json:"name"`
	Quantity   RawQuantity `json:"quantity,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	ExpiryDate string      `json:"expiry_date,omitempty"`
	ItemID     string      `json:"item_id,omitempty"`
	Category   string      `json:"category,omitempty"`
	Location   string      `json:"location,omitempty"`
	Container  string      `json:"container,omitempty"`
	ExpiryType string      `json:"expiry_type,omitempty"`
	MinStock   RawQuantity `json:"min_stock,omitempty"`
	Barcode    string      `json:"barcode,omitempty"`
	Brand      string      `json:"brand,omitempty"`
	Tags       string      `json:"tags,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Line is a validated batch entry.
type Line struct {
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	ExpiryDate *time.Time
	ItemID     string
	MinStock   *decimal.Decimal
	Meta       model.ItemMetadata
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Normalize validates r. A missing quantity defaults to 1; an empty name, a
// non-numeric or non-positive quantity, a quantity finer than
// model.QuantityPlaces, a bad date or an unknown expiry type fail with
// model.ErrInvalidLine.
func (r RawLine) Normalize() (Line, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Line{}, fmt.Errorf("%w: empty name", model.ErrInvalidLine)
	}

	qty := decimal.NewFromInt(1)
	if s := strings.TrimSpace(string(r.Quantity)); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Line{}, fmt.Errorf("%w: quantity %q is not a number", model.ErrInvalidLine, s)
		}
		qty = d
	}
	if !qty.IsPositive() {
		return Line{}, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidLine)
	}
	if !model.FitsQuantity(qty) {
		return Line{}, fmt.Errorf("%w: quantity %s has more than %d decimal places", model.ErrInvalidLine, qty, model.QuantityPlaces)
	}

	line := Line{
		Name:     name,
		Quantity: qty,
		Unit:     strings.TrimSpace(r.Unit),
		ItemID:   strings.TrimSpace(r.ItemID),
		Meta: model.ItemMetadata{
			Category:  strings.TrimSpace(r.Category),
			Location:  strings.TrimSpace(r.Location),
			Container: strings.TrimSpace(r.Container),
			Unit:      strings.TrimSpace(r.Unit),
			Barcode:   strings.TrimSpace(r.Barcode),
			Brand:     strings.TrimSpace(r.Brand),
			Tags:      strings.TrimSpace(r.Tags),
			Notes:     strings.TrimSpace(r.Notes),
		},
	}

	if s := strings.TrimSpace(r.ExpiryDate); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return Line{}, fmt.Errorf("%w: expiry date %q", model.ErrInvalidLine, s)
		}
		line.ExpiryDate = &d
		line.Meta.ExpiryDate = &d
	}

	switch et := model.ExpiryType(strings.TrimSpace(r.ExpiryType)); et {
	case "":
	case model.ExpiryUseBy, model.ExpiryBestBefore:
		line.Meta.ExpiryType = et
	default:
		return Line{}, fmt.Errorf("%w: expiry type %q", model.ErrInvalidLine, et)
	}

	if s := strings.TrimSpace(string(r.MinStock)); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() || !model.FitsQuantity(d) {
			return Line{}, fmt.Errorf("%w: min stock %q", model.ErrInvalidLine, s)
		}
		line.MinStock = &d
	}
	return line, nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return time.Time{}, err
}

const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	errorPrefix    = "error:"
)

// LineResult reports what happened to one batch line.
type LineResult struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	ItemID     string          `json:"item_id,omitempty"`
	TaskID     string          `json:"task_id,omitempty"`
	Outcome    string          `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	Created    bool            `json:"created,omitempty"`
	Requested  decimal.Decimal `json:"requested"`
	Delta      decimal.Decimal `json:"delta"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
}

func (r LineResult) Applied() bool { return r.Outcome == OutcomeApplied }

func (r LineResult) Failed() bool { return strings.HasPrefix(r.Outcome, errorPrefix) }

// Tally counts applied, skipped and failed lines.
func Tally(results []LineResult) (applied, skipped, failed int) {
	for _, r := range results {
		switch {
		case r.Applied():
			applied++
		case r.Failed():
			failed++
		default:
			skipped++
		}
	}
	return applied, skipped, failed
}

func (r *LineResult) fail(err error) {
	r.Outcome = errorPrefix + reason(err)
	r.Error = err.Error()
}

func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidLine):
		return "invalid_line"
	case errors.Is(err, model.ErrNegativeQuantity):
		return "negative_quantity"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, model.ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, cache.ErrLockBusy):
		return "busy"
	}
	return "internal"
}

// outcomeLabel folds error reasons into one metrics label value.
func outcomeLabel(outcome string) string {
	if strings.HasPrefix(outcome, errorPrefix) {
		return "error"
	}
	return outcome
}
