package colorspace

import (
	"errors"
	"strconv"
	"testing"

	"github.com/shadematch/backend/internal/domain"
)

func TestHexToLab_InvalidInput(t *testing.T) {
	inputs := []string{
		"",
		"#",
		"12345",
		"#1234567",
		"ggg123",
		"#12 34 56",
		"rgb(1,2,3)",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := HexToLab(in)
			if !errors.Is(err, domain.ErrInvalidColorFormat) {
				t.Errorf("HexToLab(%q) error = %v, want ErrInvalidColorFormat", in, err)
			}
		})
	}
}

func TestHexToLab_AcceptsOptionalPrefix(t *testing.T) {
	withPrefix, err := HexToLab("#8d573f")
	if err != nil {
		t.Fatalf("HexToLab(#8d573f) error = %v", err)
	}
	withoutPrefix, err := HexToLab("8d573f")
	if err != nil {
		t.Fatalf("HexToLab(8d573f) error = %v", err)
	}
	if withPrefix != withoutPrefix {
		t.Errorf("prefixed and unprefixed parse differ: %v vs %v", withPrefix, withoutPrefix)
	}
	// A mid-tone skin shade lands in the expected Lab region.
	if withPrefix.L < 30 || withPrefix.L > 60 {
		t.Errorf("L = %v, want mid-tone lightness", withPrefix.L)
	}
	if withPrefix.A <= 0 || withPrefix.B <= 0 {
		t.Errorf("a,b = %v,%v, want warm positive chroma", withPrefix.A, withPrefix.B)
	}
}

func TestHexRoundTrip(t *testing.T) {
	// Round trip must stay within 1 unit per 8-bit RGB channel (quantization).
	hexes := []string{
		"#8d573f", // medium skin tone
		"#f2d4c0", // very light
		"#5a3825", // dark
		"#000000",
		"#ffffff",
		"#0a141e",
		"#c08552",
	}
	for _, h := range hexes {
		t.Run(h, func(t *testing.T) {
			lab, err := HexToLab(h)
			if err != nil {
				t.Fatalf("HexToLab(%q) error = %v", h, err)
			}
			back := LabToHex(lab, false)
			r1, g1, b1 := rgbChannels(t, h)
			r2, g2, b2 := rgbChannels(t, back)
			if absInt(r1-r2) > 1 || absInt(g1-g2) > 1 || absInt(b1-b2) > 1 {
				t.Errorf("round trip %q -> %q exceeds 1 unit per channel", h, back)
			}
		})
	}
}

func TestLabToHex_VisualAdjustmentBrightens(t *testing.T) {
	c := domain.Lab{L: 50, A: 12, B: 18}
	plain := LabToHex(c, false)
	adjusted := LabToHex(c, true)

	r1, g1, b1 := rgbChannels(t, plain)
	r2, g2, b2 := rgbChannels(t, adjusted)
	if r2+g2+b2 <= r1+g1+b1 {
		t.Errorf("visual adjustment did not brighten: %s vs %s", plain, adjusted)
	}
}

func rgbChannels(t *testing.T, hex string) (int, int, int) {
	t.Helper()
	if hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		t.Fatalf("unexpected hex %q", hex)
	}
	r, err := strconv.ParseInt(hex[0:2], 16, 32)
	if err != nil {
		t.Fatalf("parse %q: %v", hex, err)
	}
	g, err := strconv.ParseInt(hex[2:4], 16, 32)
	if err != nil {
		t.Fatalf("parse %q: %v", hex, err)
	}
	b, err := strconv.ParseInt(hex[4:6], 16, 32)
	if err != nil {
		t.Fatalf("parse %q: %v", hex, err)
	}
	return int(r), int(g), int(b)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
