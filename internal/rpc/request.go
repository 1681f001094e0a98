package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/pantry-service/internal/model"
)

// Empty is the request or response of calls that carry nothing.
type Empty struct{}

// ParseDate reads an optional "2006-01-02" or RFC 3339 date. An empty string
// is nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := model.DateOf(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: date %q", model.ErrInvalidLine, s)
}
