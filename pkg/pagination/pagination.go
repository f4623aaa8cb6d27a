package pagination

import (
	"net/http"
	"strconv"
)

// Params holds limit/offset paging parameters taken from the query string.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromRequest reads ?limit= and ?offset=. A missing or non-positive limit
// falls back to def, a limit above max is clamped to max, and a negative or
// malformed offset becomes 0.
func FromRequest(r *http.Request, def, max int) Params {
	q := r.URL.Query()
	p := Params{Limit: def}

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

// Window returns items[offset:offset+limit], clipped to the slice bounds.
func Window[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}
