package layers

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Black is the default layer color.
var Black = Color{0, 0, 0, 255}

// Slice returns the color as [r, g, b, a].
func (c Color) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
}

// ParseColor reads a color attribute: a list of 3 or 4 numbers in 0-255,
// "#rrggbb", "#rrggbbaa" or "r,g,b[,a]". Alpha defaults to 255.
func ParseColor(v any) (Color, error) {
	switch t := v.(type) {
	case Color:
		return t, nil
	case string:
		return parseColorString(t)
	case []int:
		vals := make([]float64, len(t))
		for i, x := range t {
			vals[i] = float64(x)
		}
		return fromComponents(vals)
	case []float64:
		return fromComponents(t)
	case []any:
		vals := make([]float64, len(t))
		for i, x := range t {
			switch n := x.(type) {
			case float64:
				vals[i] = n
			case int:
				vals[i] = float64(n)
			case int64:
				vals[i] = float64(n)
			default:
				return Color{}, fmt.Errorf("layers: color component %d is %T", i, x)
			}
		}
		return fromComponents(vals)
	}
	return Color{}, fmt.Errorf("layers: cannot read color from %T", v)
}

func parseColorString(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		if len(h) != 6 && len(h) != 8 {
			return Color{}, fmt.Errorf("layers: bad hex color %q", s)
		}
		n, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("layers: bad hex color %q: %w", s, err)
		}
		if len(h) == 6 {
			return Color{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, nil
		}
		return Color{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
	}
	parts := strings.Split(strings.Trim(s, "()[] "), ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("layers: bad color %q: %w", s, err)
		}
		vals[i] = x
	}
	return fromComponents(vals)
}

func fromComponents(vals []float64) (Color, error) {
	if len(vals) != 3 && len(vals) != 4 {
		return Color{}, fmt.Errorf("layers: color needs 3 or 4 components, got %d", len(vals))
	}
	var c [4]uint8
	c[3] = 255
	for i, x := range vals {
		if x < 0 || x > 255 {
			return Color{}, fmt.Errorf("layers: color component %v out of range", x)
		}
		c[i] = uint8(x)
	}
	return Color{c[0], c[1], c[2], c[3]}, nil
}
