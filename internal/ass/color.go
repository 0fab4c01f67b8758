package ass

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an ASS colour. Alpha follows ASS semantics: 0 is opaque,
// 255 fully transparent.
type Color struct {
	R, G, B uint8
	Alpha   uint8
}

// ParseColor reads &HAABBGGRR, &HBBGGRR (optionally with a trailing &) or a
// plain decimal BGR value as found in some older style lines.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToUpper(s), "&H") {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid colour %q", s)
		}
		return colorFromUint(uint32(v)), nil
	}

	hex := strings.TrimSuffix(s[2:], "&")
	if len(hex) == 0 || len(hex) > 8 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	return colorFromUint(uint32(v)), nil
}

func colorFromUint(v uint32) Color {
	return Color{
		R:     uint8(v),
		G:     uint8(v >> 8),
		B:     uint8(v >> 16),
		Alpha: uint8(v >> 24),
	}
}

func parseColorOrZero(s string) Color {
	c, _ := ParseColor(s)
	return c
}

// String renders the style-line form &HAABBGGRR.
func (c Color) String() string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", c.Alpha, c.B, c.G, c.R)
}

// Override renders the inline override form used by \1c, e.g. &H00FF00&.
func (c Color) Override() string {
	if c.Alpha != 0 {
		return fmt.Sprintf("&H%02X%02X%02X%02X&", c.Alpha, c.B, c.G, c.R)
	}
	return fmt.Sprintf("&H%02X%02X%02X&", c.B, c.G, c.R)
}

// Hex renders #RRGGBB, or #RRGGBBAA with CSS opacity when not opaque.
func (c Color) Hex() string {
	if c.Alpha == 0 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, 255-c.Alpha)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}
