package tscmodels

import (
	"regexp"
	"strings"
)

var macRe = regexp.MustCompile(`^[0-9A-Fa-f]{2}(:[0-9A-Fa-f]{2}){5}$`)

// ValidMAC reports whether s is a colon-separated 48-bit hardware address.
func ValidMAC(s string) bool {
	return macRe.MatchString(s)
}

// NormalizeMAC returns the canonical uppercase form used as the identity of
// hubs and sensors everywhere in the store and on broadcast topics.
func NormalizeMAC(s string) string {
	return strings.ToUpper(s)
}
