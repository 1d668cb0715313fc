package haus

import (
	"regexp"
	"sort"
)

// Suchkriterien maps filter keys to their raw values
type Suchkriterien map[string]string

// Filter keys with special semantics
const (
	KeyStrasse     = "strasse"
	KeyWaermepumpe = "waermepumpe"
	KeyPool        = "pool"
)

// columns are the haus properties that can be matched exactly
var columns = map[string]struct{}{
	"id":           {},
	"version":      {},
	"hausflaeche":  {},
	"art":          {},
	"preis":        {},
	"verkaeuflich": {},
	"baudatum":     {},
	"katalog":      {},
	"features":     {},
	"erzeugt":      {},
	"aktualisiert": {},
}

// featureKeys maps the boolean filters to the tag they look for
var featureKeys = map[string]string{
	KeyWaermepumpe: "WAERMEPUMPE",
	KeyPool:        "POOL",
}

// IDPattern matches valid house identifiers
var IDPattern = regexp.MustCompile(`^[1-9]\d{0,10}$`)

// IsValidKey reports whether key may appear in search criteria
func IsValidKey(key string) bool {
	if _, ok := columns[key]; ok {
		return true
	}
	if _, ok := featureKeys[key]; ok {
		return true
	}
	return key == KeyStrasse
}

// InvalidKeys returns the unknown keys of c in sorted order
func (c Suchkriterien) InvalidKeys() []string {
	var invalid []string
	for k := range c {
		if !IsValidKey(k) {
			invalid = append(invalid, k)
		}
	}
	sort.Strings(invalid)
	return invalid
}

// sortedKeys returns the keys of c in a deterministic order
func (c Suchkriterien) sortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
