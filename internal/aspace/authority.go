package aspace

import (
	"net/url"
	"strings"
	"sync"
)

var (
	authorityMu       sync.RWMutex
	authorityPrefixes = map[string]string{
		"lcsh":  "http://id.loc.gov/authorities/subjects/",
		"lcnaf": "http://id.loc.gov/authorities/names/",
		"naf":   "http://id.loc.gov/authorities/names/",
		"tgn":   "http://vocab.getty.edu/tgn/",
		"aat":   "http://vocab.getty.edu/aat/",
	}
)

// RegisterAuthoritySource adds or replaces the URI prefix used for a vocabulary source code
func RegisterAuthoritySource(sourceCode, prefix string) {
	authorityMu.Lock()
	defer authorityMu.Unlock()
	authorityPrefixes[strings.ToLower(sourceCode)] = prefix
}

// NormalizeAuthorityID turns a bare vocabulary identifier into its linked data URI.
// Identifiers that already point at the vocabulary host, and identifiers from unknown
// sources, are returned unchanged.
func NormalizeAuthorityID(sourceCode, rawID string) string {
	if rawID == "" {
		return rawID
	}
	authorityMu.RLock()
	prefix, ok := authorityPrefixes[strings.ToLower(sourceCode)]
	authorityMu.RUnlock()
	if !ok {
		return rawID
	}
	if strings.Contains(rawID, authorityHost(prefix)) {
		return rawID
	}
	return prefix + rawID
}

// authorityHost reduces a prefix to its registrable host, eg: id.loc.gov -> loc.gov
func authorityHost(prefix string) string {
	u, err := url.Parse(prefix)
	if err != nil || u.Host == "" {
		return prefix
	}
	bits := strings.Split(u.Hostname(), ".")
	if len(bits) > 2 {
		bits = bits[len(bits)-2:]
	}
	return strings.Join(bits, ".")
}
