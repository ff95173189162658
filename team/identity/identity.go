// team/identity/identity.go
package identity

import (
	"fmt"
	"regexp"
	"strconv"
)

// TeamIDPrefix is the fixed namespace tag every team storage key starts with.
const TeamIDPrefix = "cteam_"

// MaxNameLength is the maximum length of a team's short name.
const MaxNameLength = 4

// Defaults substituted for empty input rather than failing validation.
const (
	DefaultColor = "white"
	DefaultOwner = "Server"
)

// Validation errors. Use errors.Is for checking.
var (
	ErrNameEmpty        = fmt.Errorf("team name cannot be empty")
	ErrNameTooLong      = fmt.Errorf("team name cannot be longer than %d characters", MaxNameLength)
	ErrNameInvalidChars = fmt.Errorf("team name cannot contain special characters")
	ErrInvalidColor     = fmt.Errorf("invalid color: must be a valid minecraft color or hex color")
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	hexPattern  = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// TeamIdentity is the validated (name, color, owner) triad a team is derived
// from. Construct it with DeriveIdentity; a zero TeamIdentity is not valid.
type TeamIdentity struct {
	Name  string
	Color string
	Owner string
}

// DeriveIdentity validates and normalizes the triad. An empty color defaults
// to white and an empty owner to "Server"; an invalid name or color is a
// typed error and nothing else happens.
func DeriveIdentity(name, color, owner string) (TeamIdentity, error) {
	if name == "" {
		return TeamIdentity{}, ErrNameEmpty
	}
	if len(name) > MaxNameLength {
		return TeamIdentity{}, ErrNameTooLong
	}
	if !namePattern.MatchString(name) {
		return TeamIdentity{}, ErrNameInvalidChars
	}

	if color == "" {
		color = DefaultColor
	}
	if err := ValidateColor(color); err != nil {
		return TeamIdentity{}, err
	}

	if owner == "" {
		owner = DefaultOwner
	}

	return TeamIdentity{Name: name, Color: color, Owner: owner}, nil
}

// TeamID derives the storage key for this identity. The result is stable and
// deterministic for the same inputs.
func (ti TeamIdentity) TeamID() string {
	return TeamIDPrefix + ti.Name + "_" + ti.Owner
}

// ValidateColor reports whether spec is one of the 16 named minecraft colors
// or a #RGB/#RRGGBB hex string.
func ValidateColor(spec string) error {
	if hexPattern.MatchString(spec) {
		return nil
	}
	if _, ok := namedColors[spec]; ok {
		return nil
	}
	return ErrInvalidColor
}

// ValidateName checks a short name on its own, for the edit-name operation.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !namePattern.MatchString(name) {
		return ErrNameInvalidChars
	}
	return nil
}

// ResolveColor maps a color spec to its RGB value. Hex strings parse
// directly; named colors map through the fixed table; anything unrecognized
// falls back to white without error.
func ResolveColor(spec string) int {
	if hexPattern.MatchString(spec) {
		rgb, err := strconv.ParseInt(spec[1:], 16, 32)
		if err == nil {
			return int(rgb)
		}
	}
	if rgb, ok := namedColors[spec]; ok {
		return rgb
	}
	return namedColors[DefaultColor]
}
