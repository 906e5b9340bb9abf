package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderVariables(t *testing.T) {
	vars := RecipientVariables("john@example.com", "John", "Doe", map[string]string{
		"company": "Acme & Co",
		"email":   "spoofed@example.com",
	})

	tests := []struct {
		name     string
		content  string
		escape   bool
		expected string
	}{
		{
			name:     "Single variable",
			content:  "Hello {{firstName}}",
			expected: "Hello John",
		},
		{
			name:     "Multiple variables",
			content:  "{{firstName}} {{lastName}} <{{email}}>",
			expected: "John Doe <john@example.com>",
		},
		{
			name:     "Variables with whitespace",
			content:  "{{  fullName  }}",
			expected: "John Doe",
		},
		{
			name:     "Unknown variable left in place",
			content:  "Code: {{promoCode}}",
			expected: "Code: {{promoCode}}",
		},
		{
			name:     "Malformed tag",
			content:  "Malformed: {{firstName",
			expected: "Malformed: {{firstName",
		},
		{
			name:     "Extra variable escaped in HTML",
			content:  "<p>{{company}}</p>",
			escape:   true,
			expected: "<p>Acme &amp; Co</p>",
		},
		{
			name:     "Extra variable raw in subject",
			content:  "Welcome to {{company}}",
			expected: "Welcome to Acme & Co",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderVariables(tt.content, vars, tt.escape))
		})
	}
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("Hi {{firstName}}", "<p>{{ lastName }} {{firstName}} {{company.name}}</p>")
	assert.Equal(t, []string{"company.name", "firstName", "lastName"}, vars)
	assert.Empty(t, ExtractVariables("no placeholders"))
}

func TestAppendTrackingPixel(t *testing.T) {
	withBody := appendTrackingPixel("<html><body><p>Hi</p></body></html>", "https://app.test/api/emails/track/abc")
	assert.Contains(t, withBody, `<img src="https://app.test/api/emails/track/abc"`)
	assert.Contains(t, withBody, `</p><img`)
	assert.Contains(t, withBody, `/></body></html>`)

	fragment := appendTrackingPixel("<p>Hi</p>", "/api/emails/track/xyz")
	assert.Equal(t, `<p>Hi</p><img src="/api/emails/track/xyz" width="1" height="1" alt="" style="display:none" />`, fragment)
}
