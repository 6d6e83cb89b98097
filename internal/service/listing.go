package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
)

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListStats are the counters shown above a listing.  They ignore the
// filter: ActiveProvinceTotal is the number of distinct provinces among
// active records.
type ListStats struct {
	ActiveTotal         int `json:"activeTotal"`
	ActiveProvinceTotal int `json:"activeProvinceTotal"`
}

type statsCounter struct {
	active    int
	provinces map[string]bool
}

func (c *statsCounter) add(active bool, province string) {
	if !active {
		return
	}
	if c.provinces == nil {
		c.provinces = map[string]bool{}
	}
	c.active++
	c.provinces[province] = true
}

func (c *statsCounter) result() ListStats {
	return ListStats{ActiveTotal: c.active, ActiveProvinceTotal: len(c.provinces)}
}

// CreatedRange bounds a listing by creation time.  A zero end is open;
// both ends are inclusive.
type CreatedRange struct {
	From time.Time
	To   time.Time
}

func (r CreatedRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ParseCreatedRange reads the date_from and date_to query values.  Each is
// RFC 3339 or a calendar date; a calendar date in to covers that whole
// day.
func ParseCreatedRange(from, to string) (CreatedRange, error) {
	var (
		r   CreatedRange
		err error
	)
	if from = strings.TrimSpace(from); from != "" {
		if r.From, _, err = parseBound(from); err != nil {
			return r, apperr.Validation(fmt.Sprintf("invalid date_from %q", from))
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		var dateOnly bool
		if r.To, dateOnly, err = parseBound(to); err != nil {
			return r, apperr.Validation(fmt.Sprintf("invalid date_to %q", to))
		}
		if dateOnly {
			r.To = r.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return r, apperr.Validation("date_from is after date_to")
	}
	return r, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}

// statusMatches applies an "Active"/"Inactive" filter; anything else
// matches both.
func statusMatches(status string, active bool) bool {
	switch status {
	case "Active":
		return active
	case "Inactive":
		return !active
	}
	return true
}

// containsFold reports whether sub occurs in s, ignoring case.  An empty
// sub matches.
func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// paginate applies 1-based page and a limit clamped to [1,100] (default 50).
func paginate[T any](items []T, page, limit int) ([]T, PageMeta) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	meta := PageMeta{Page: page, Limit: limit, Total: len(items)}
	meta.TotalPages = (len(items) + limit - 1) / limit
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, meta
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], meta
}
