package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"finexpress/internal/core"
)

// parseFilter reads month and category from query parameters. A missing
// month selects the month of now; an explicitly empty one disables the
// month filter.
func parseFilter(q url.Values, now time.Time) (core.FilterSpec, error) {
	spec := core.DefaultFilter(now)
	if vals, ok := q["month"]; ok && len(vals) > 0 {
		spec.Month = strings.TrimSpace(vals[0])
		if spec.Month != "" {
			if _, err := time.Parse(core.MonthLayout, spec.Month); err != nil {
				return core.FilterSpec{}, fmt.Errorf("month must be in YYYY-MM form: %q", spec.Month)
			}
		}
	}
	spec.Category = sanitizeInput(q.Get("category"))
	return spec, nil
}

// filterQuery encodes spec so that parseFilter returns it unchanged.
func filterQuery(spec core.FilterSpec) string {
	v := url.Values{}
	v.Set("month", spec.Month)
	if spec.Category != "" {
		v.Set("category", spec.Category)
	}
	return v.Encode()
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
