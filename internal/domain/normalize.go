package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeZone canonicalizes a bidding zone code: NFC, trimmed, upper case.
// Zone codes arrive from several registries with inconsistent spelling.
func NormalizeZone(zone string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(zone)))
}

// NormalizeID canonicalizes a record id: NFC and trimmed.
func NormalizeID(id string) string {
	return strings.TrimSpace(norm.NFC.String(id))
}
