// Package normalize canonicalizes extracted candidates before matching.
package normalize

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during canonicalization.
// utm_* is matched by prefix.
var trackingParams = map[string]struct{}{
	"gclid":  {},
	"fbclid": {},
	"igshid": {},
	"mc_cid": {},
	"mc_eid": {},
	"ref":    {},
}

// CanonicalURL resolves raw against base and standardizes the result for
// identity matching: tracking parameters stripped, scheme and host
// lowercased, default ports and fragments removed, remaining query
// parameters sorted. It returns "" when the result fails the strict
// http/https validity check.
func CanonicalURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != "" {
		b, err := url.Parse(base)
		if err == nil {
			u = b.ResolveReference(u)
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Hostname() == "" {
		return ""
	}

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = encodeSorted(q)

	return u.String()
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	_, ok := trackingParams[k]
	return ok
}

// encodeSorted is url.Values.Encode with deterministic key order made
// explicit; Encode already sorts keys but not repeated values.
func encodeSorted(q url.Values) string {
	for key := range q {
		sort.Strings(q[key])
	}
	return q.Encode()
}
