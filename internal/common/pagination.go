package common

import (
	"net/url"
	"strconv"
	"strings"
)

// Page is an offset/limit window over a filtered result set.
type Page struct {
	Limit  int
	Offset int
}

// HasMore reports whether rows remain after a page holding returned items.
func (p Page) HasMore(returned int, total int64) bool {
	return int64(p.Offset+returned) < total
}

// ParsePage reads limit and offset from query values. Missing values fall back
// to defaultLimit and zero; limit is clamped to maxLimit. Malformed or negative
// values are reported as 400 errors.
func ParsePage(values url.Values, defaultLimit, maxLimit int) (Page, error) {
	page := Page{Limit: defaultLimit}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return page, BadRequest("BAD_REQUEST", "limit", "limit must be a positive integer", err)
		}
		page.Limit = l
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	if v := strings.TrimSpace(values.Get("offset")); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return page, BadRequest("BAD_REQUEST", "offset", "offset must be zero or a positive integer", err)
		}
		page.Offset = o
	}
	return page, nil
}
