package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "script tag", input: `Hello <script>alert('xss')</script>World`, expected: "Hello World"},
		{name: "inline handler", input: `<div onclick="alert(1)">Click me</div>`, expected: "Click me"},
		{name: "ampersand survives", input: "Q&A night", expected: "Q&A night"},
		{name: "trims", input: "  see you there  ", expected: "see you there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestRichKeepsFormatting(t *testing.T) {
	out := Rich(`<p>Bring <b>snacks</b></p><script>alert(1)</script>`)

	require.Contains(t, out, "<b>snacks</b>")
	require.NotContains(t, out, "script")
}
