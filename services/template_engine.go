package services

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// variableRegex matches {{variable}} placeholders, tolerating inner whitespace
var variableRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RecipientVariables builds the substitution map for one recipient.
// Extra variables never override the built-in name and email keys.
func RecipientVariables(email, firstName, lastName string, extra map[string]string) map[string]string {
	vars := make(map[string]string, len(extra)+4)
	for k, v := range extra {
		vars[k] = v
	}
	vars["firstName"] = firstName
	vars["lastName"] = lastName
	vars["email"] = email
	vars["fullName"] = strings.TrimSpace(firstName + " " + lastName)
	return vars
}

// RenderVariables replaces {{variable}} placeholders with values from vars.
// Unknown placeholders are left untouched. With escapeHTML set, values are
// HTML-escaped so recipient data cannot inject markup into a body.
func RenderVariables(content string, vars map[string]string, escapeHTML bool) string {
	return variableRegex.ReplaceAllStringFunc(content, func(match string) string {
		key := variableRegex.FindStringSubmatch(match)[1]

		value, ok := vars[key]
		if !ok {
			return match
		}
		if escapeHTML {
			return html.EscapeString(value)
		}
		return value
	})
}

// ExtractVariables lists the distinct placeholder names used in the given contents
func ExtractVariables(contents ...string) []string {
	seen := make(map[string]bool)
	for _, c := range contents {
		for _, m := range variableRegex.FindAllStringSubmatch(c, -1) {
			seen[m[1]] = true
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// appendTrackingPixel adds an invisible open-tracking image to an HTML body
func appendTrackingPixel(body, pixelURL string) string {
	pixel := `<img src="` + html.EscapeString(pixelURL) + `" width="1" height="1" alt="" style="display:none" />`
	if i := strings.LastIndex(strings.ToLower(body), "</body>"); i >= 0 {
		return body[:i] + pixel + body[i:]
	}
	return body + pixel
}
