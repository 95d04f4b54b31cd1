package docmodel

import (
	"fmt"
	"regexp"

	"github.com/metis-io/metis/internal/metiserr"
)

// shortCodePattern implements spec invariant 2:
// ^[A-Z0-9]{1,8}-(V|S|I|T|A)-\d{4,}$
var shortCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,8}-(V|S|I|T|A)-\d{4,}$`)

// ValidateShortCode checks a short code against the canonical format.
func ValidateShortCode(code string) error {
	if !shortCodePattern.MatchString(code) {
		return fmt.Errorf("%w: %q", metiserr.ErrShortCodeFormat, code)
	}
	return nil
}

// ShortCodeKind extracts the Kind encoded in a valid short code.
func ShortCodeKind(code string) (Kind, error) {
	m := shortCodePattern.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("%w: %q", metiserr.ErrShortCodeFormat, code)
	}
	kind, ok := KindFromLetter(m[1])
	if !ok {
		return "", fmt.Errorf("%w: %q", metiserr.ErrShortCodeFormat, code)
	}
	return kind, nil
}
