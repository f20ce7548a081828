package validation

import (
	"testing"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title *string `json:"title" validate:"omitempty,notblank,min=3,max=10"`
	Email string  `json:"email" validate:"required,email"`
	Limit int     `json:"participantLimit" validate:"gte=0"`
}

func strPtr(s string) *string { return &s }

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Email: "a@example.com"}))
	require.NoError(t, Struct(sample{Title: strPtr("Go night"), Email: "a@example.com"}))

	tests := []struct {
		name  string
		value sample
		field string
	}{
		{"missing email", sample{}, "email"},
		{"bad email", sample{Email: "nope"}, "email"},
		{"blank title", sample{Title: strPtr("    "), Email: "a@example.com"}, "title"},
		{"short title", sample{Title: strPtr("Go"), Email: "a@example.com"}, "title"},
		{"negative limit", sample{Email: "a@example.com", Limit: -1}, "participantLimit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.value)
			require.ErrorIs(t, err, errs.ErrValidation)
			assert.Contains(t, err.Error(), "Field: "+tt.field+".")
		})
	}
}
