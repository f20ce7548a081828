// Package pagination parses offset paging parameters from query strings.
package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
)

// Parse reads from (>= 0, default 0) and size (1..1000, default 10).
func Parse(q url.Values) (paging.Page, error) {
	page := paging.Default()

	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		from, err := strconv.Atoi(raw)
		if err != nil || from < 0 {
			return paging.Page{}, errs.Validation("Field: from. Error: must be greater than or equal to 0. Value: %s", raw)
		}
		page.From = from
	}

	if raw := strings.TrimSpace(q.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > paging.MaxSize {
			return paging.Page{}, errs.Validation("Field: size. Error: must be between 1 and %d. Value: %s", paging.MaxSize, raw)
		}
		page.Size = size
	}

	return page, nil
}
