package intent

import (
	"regexp"
	"strings"
)

// providerHintPattern matches the token and its opening quotes. Closing quotes
// are consumed only when they pair with an opening one.
var providerHintPattern = regexp.MustCompile(`(?i)(["']?)service:(["']?)([a-z0-9](?:[a-z0-9_.-]*[a-z0-9_])?)`)

// StripProviderHints removes every service:<name> token, together with the
// quotes paired around it and one adjacent space, and returns the remaining
// text and the first provider named. Text outside the tokens is kept byte for
// byte.
func StripProviderHints(message string) (string, string) {
	matches := providerHintPattern.FindAllStringSubmatchIndex(message, -1)
	if len(matches) == 0 {
		return message, ""
	}

	provider := strings.ToLower(message[matches[0][6]:matches[0][7]])

	var out strings.Builder

	out.Grow(len(message))

	last := 0

	for _, match := range matches {
		start, end := match[0], match[1]
		outer := message[match[2]:match[3]]
		inner := message[match[4]:match[5]]

		if inner != "" && strings.HasPrefix(message[end:], inner) {
			end++
		}

		if outer != "" {
			if strings.HasPrefix(message[end:], outer) {
				end++
			} else {
				// the quote belongs to the surrounding text
				start++
			}
		}

		if start < last {
			start = last
		}

		switch {
		case end < len(message) && message[end] == ' ':
			end++
		case start > last && message[start-1] == ' ':
			start--
		}

		out.WriteString(message[last:start])
		last = end
	}

	out.WriteString(message[last:])

	return out.String(), provider
}
