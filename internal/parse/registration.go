package parse

import (
	"fmt"
	"strings"
	"unicode"
)

// maxRegistrationLen bounds a canonical plate; longer inputs are garbage.
const maxRegistrationLen = 16

// Registration canonicalizes a vehicle registration plate so that variant
// spellings ("abc 123", "ABC-123") address the same vehicle row: uppercase,
// with spaces, hyphens and dots stripped. Only letters and digits may
// remain.
func Registration(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == ' ' || r == '-' || r == '.':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			return "", fmt.Errorf("registration %q contains invalid character %q", raw, r)
		}
	}
	reg := b.String()
	if reg == "" {
		return "", fmt.Errorf("registration %q is empty", raw)
	}
	if len(reg) > maxRegistrationLen {
		return "", fmt.Errorf("registration %q is longer than %d characters", raw, maxRegistrationLen)
	}
	return reg, nil
}
