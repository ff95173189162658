package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIdentity(t *testing.T) {
	ident, err := DeriveIdentity("Fox", "red", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "Fox", ident.Name)
	assert.Equal(t, "red", ident.Color)
	assert.Equal(t, "Ann", ident.Owner)
	assert.Equal(t, "cteam_Fox_Ann", ident.TeamID())
}

func TestDeriveIdentityDefaults(t *testing.T) {
	ident, err := DeriveIdentity("Fox", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultColor, ident.Color)
	assert.Equal(t, DefaultOwner, ident.Owner)
	assert.Equal(t, "cteam_Fox_Server", ident.TeamID())
}

func TestDeriveIdentityNameValidation(t *testing.T) {
	_, err := DeriveIdentity("", "red", "Ann")
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = DeriveIdentity("Foxes", "red", "Ann")
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = DeriveIdentity("F_x", "red", "Ann")
	assert.ErrorIs(t, err, ErrNameInvalidChars)

	_, err = DeriveIdentity("F x", "red", "Ann")
	assert.ErrorIs(t, err, ErrNameInvalidChars)
}

func TestDeriveIdentityColorValidation(t *testing.T) {
	_, err := DeriveIdentity("Fox", "crimson", "Ann")
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = DeriveIdentity("Fox", "#12345", "Ann")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestValidateColor(t *testing.T) {
	for _, spec := range []string{"white", "dark_purple", "light_purple", "#f7676a", "#F7676A", "#abc"} {
		assert.NoError(t, ValidateColor(spec), spec)
	}
	for _, spec := range []string{"", "WHITE", "#gggggg", "#12", "f7676a"} {
		assert.ErrorIs(t, ValidateColor(spec), ErrInvalidColor, spec)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Fox"))
	assert.NoError(t, ValidateName("A1b2"))
	assert.ErrorIs(t, ValidateName(""), ErrNameEmpty)
	assert.ErrorIs(t, ValidateName("Foxes"), ErrNameTooLong)
	assert.ErrorIs(t, ValidateName("Fo!"), ErrNameInvalidChars)
}

func TestResolveColor(t *testing.T) {
	assert.Equal(t, 0xf7676a, ResolveColor("#f7676a"))
	assert.Equal(t, 0xFF5555, ResolveColor("red"))
	assert.Equal(t, 0xFFFFFF, ResolveColor("white"))

	// Three-digit hex parses as its literal value, it is not expanded.
	assert.Equal(t, 0xabc, ResolveColor("#abc"))

	// Unknown specs fall back to white without error.
	assert.Equal(t, 0xFFFFFF, ResolveColor("crimson"))
	assert.Equal(t, 0xFFFFFF, ResolveColor(""))
}

func TestNamedColors(t *testing.T) {
	names := NamedColors()
	assert.Len(t, names, 16)
	assert.Contains(t, names, "dark_aqua")
	assert.Contains(t, names, "gold")
}
