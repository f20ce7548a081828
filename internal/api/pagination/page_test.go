package pagination

import (
	"net/url"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query   string
		want    paging.Page
		wantErr bool
	}{
		{"", paging.Page{From: 0, Size: 10}, false},
		{"from=20&size=5", paging.Page{From: 20, Size: 5}, false},
		{"size=1000", paging.Page{From: 0, Size: 1000}, false},
		{"from=-1", paging.Page{}, true},
		{"size=0", paging.Page{}, true},
		{"size=1001", paging.Page{}, true},
		{"from=abc", paging.Page{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			page, err := Parse(q)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}
