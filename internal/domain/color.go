package domain

import (
	"encoding/json"
	"fmt"
)

// Lab is a color in CIE L*a*b* space. L is lightness in roughly [0,100];
// a and b are the chroma axes, typically within [-128,127].
type Lab struct {
	L float64
	A float64
	B float64
}

// IsZero reports whether the color is the zero value, which doubles as the
// "no color data" sentinel throughout the matching pipeline.
func (c Lab) IsZero() bool {
	return c.L == 0 && c.A == 0 && c.B == 0
}

// MarshalJSON encodes the color as a [L, a, b] array, the wire format the
// catalog and the frontend both use.
func (c Lab) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{c.L, c.A, c.B})
}

// UnmarshalJSON decodes a [L, a, b] array.
func (c *Lab) UnmarshalJSON(data []byte) error {
	var triple []float64
	if err := json.Unmarshal(data, &triple); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColorFormat, err)
	}
	if len(triple) != 3 {
		return fmt.Errorf("%w: expected 3 channels, got %d", ErrInvalidColorFormat, len(triple))
	}
	c.L, c.A, c.B = triple[0], triple[1], triple[2]
	return nil
}
