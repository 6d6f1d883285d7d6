package conf

import (
	"fmt"
	"regexp"
)

// Tunnel names follow the interface naming rules of wg-quick(8): start
// and end with an alphanumeric character, interior characters from
// [A-Za-z0-9_=+.-], total length 1-17. The name doubles as the OS
// interface name and the config file base name.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_=+.-]{0,15}[a-zA-Z0-9])?$`)

// ValidateName checks a tunnel name against the naming rules. The empty
// name is reported distinctly from a malformed one so callers can show
// a precise message.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
