// team/identity/colors.go
package identity

// namedColors is the fixed 16-entry minecraft formatting color table, mapped
// to the RGB values the vanilla client renders them with.
var namedColors = map[string]int{
	"black":        0x000000,
	"dark_blue":    0x0000AA,
	"dark_green":   0x00AA00,
	"dark_aqua":    0x00AAAA,
	"dark_red":     0xAA0000,
	"dark_purple":  0xAA00AA,
	"gold":         0xFFAA00,
	"gray":         0xAAAAAA,
	"dark_gray":    0x555555,
	"blue":         0x5555FF,
	"green":        0x55FF55,
	"aqua":         0x55FFFF,
	"red":          0xFF5555,
	"light_purple": 0xFF55FF,
	"yellow":       0xFFFF55,
	"white":        0xFFFFFF,
}

// NamedColors returns the valid named color specs, for the color suggestion
// endpoint.
func NamedColors() []string {
	names := make([]string, 0, len(namedColors))
	for name := range namedColors {
		names = append(names, name)
	}
	return names
}
