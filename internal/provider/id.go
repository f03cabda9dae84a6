package provider

import (
	"fmt"
	"strings"
)

// GenerateID derives a stable identifier from a display name: lowercase,
// keep [a-z0-9-_], map every other rune to '-', trim the ends. A name that
// normalizes to nothing falls back to the literal base "-". Collisions with
// existing ids get a numeric suffix (-1, -2, ...). Deterministic for the
// same name and existing set.
func GenerateID(name string, existing []string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	base := strings.Trim(b.String(), "-")
	if base == "" {
		base = "-"
	}

	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if !taken[id] {
			return id
		}
	}
}
