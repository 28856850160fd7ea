// Package colorspace provides the Lab/hex conversions and the perceptual
// distance metric used by the matching pipeline. All conversions use the D50
// reference illuminant; all distances are CIEDE2000.
package colorspace

import (
	"fmt"
	"regexp"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/shadematch/backend/internal/domain"
)

// visualBrightnessScale lifts L before rendering swatches. Screens render
// foundation shades darker than they look on skin; this factor is applied
// for display only, never in matching math.
const visualBrightnessScale = 1.25

var hexPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// go-colorful works in a 0..1-scaled Lab; the catalog and the CIE formulas
// use the conventional 0..100 scale.
const labScale = 100.0

// LabToHex converts a Lab color to its sRGB hex representation under the D50
// illuminant. With visualAdjustment the lightness is brightened for swatch
// rendering.
func LabToHex(c domain.Lab, visualAdjustment bool) string {
	l := c.L
	if visualAdjustment {
		l *= visualBrightnessScale
	}
	col := colorful.LabWhiteRef(l/labScale, c.A/labScale, c.B/labScale, colorful.D50)
	return col.Clamped().Hex()
}

// HexToLab converts a 6-digit hex sRGB string (optionally prefixed with '#')
// to Lab under the D50 illuminant.
func HexToLab(hex string) (domain.Lab, error) {
	if !hexPattern.MatchString(hex) {
		return domain.Lab{}, fmt.Errorf("%w: %q is not a 6-digit hex color", domain.ErrInvalidColorFormat, hex)
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return domain.Lab{}, fmt.Errorf("%w: %v", domain.ErrInvalidColorFormat, err)
	}
	l, a, b := col.LabWhiteRef(colorful.D50)
	return domain.Lab{L: l * labScale, A: a * labScale, B: b * labScale}, nil
}
