package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "static path",
			input:    "/events",
			expected: "/events",
		},
		{
			name:     "single param",
			input:    "/events/{id}",
			expected: "/events/{param}",
		},
		{
			name:     "numeric ids",
			input:    "/users/12/events/345/requests",
			expected: "/users/{param}/events/{param}/requests",
		},
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "non-path input",
			input:    "events/{id}",
			expected: "events/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
