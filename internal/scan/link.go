package scan

import (
	"net/url"
	"strings"
)

// AdvisoryLink returns payload as a link when it is a well-formed http(s)
// URL. Callers only offer the link; nothing navigates to it.
func AdvisoryLink(payload string) (string, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return "", false
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	return u.String(), true
}
