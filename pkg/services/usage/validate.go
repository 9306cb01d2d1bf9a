package usage

import (
	"fmt"
	"regexp"
)

var gearIDRe = regexp.MustCompile(`^[a-f0-9]{24}$`)

// ValidateGearID checks the 24-hex-char gear identifier format before
// anything is queried.
func ValidateGearID(gearID string) error {
	if gearID == "" {
		return nil
	}
	if !gearIDRe.MatchString(gearID) {
		return NewExitError(ExitInvalidGearID, fmt.Sprintf("invalid gear id %q: expected 24 hex characters", gearID))
	}
	return nil
}
