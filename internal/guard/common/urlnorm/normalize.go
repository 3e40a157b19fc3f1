// Package urlnorm provides URL canonicalization for link classification.
package urlnorm

import (
	"net/url"
	"strings"
)

// Normalize returns the canonical form of a link URL:
// - Trimmed of surrounding whitespace
// - Scheme and host lowercased
// - Fragment removed
// - Tracking query parameters (utm_*, fbclid, gclid, igshid, mc_eid, si, feature) dropped
// - Remaining query parameters kept in their original order
// The second return value is false when the input cannot be parsed as a URL;
// the returned string is then the trimmed, lowercased input so callers still
// get a stable key.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed), false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false
	u.RawQuery = stripTrackingParams(u.RawQuery)

	return u.String(), true
}

// stripTrackingParams removes tracking parameters from a raw query string,
// preserving the order of whatever remains.
func stripTrackingParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if isTrackingParam(strings.ToLower(key)) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func isTrackingParam(key string) bool {
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	switch key {
	case "fbclid", "gclid", "igshid", "mc_eid", "si", "feature":
		return true
	}
	return false
}
