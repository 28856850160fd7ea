package colorspace

import (
	"math"

	"github.com/shadematch/backend/internal/domain"
)

// pow25_7 is 25^7, a constant of the CIEDE2000 chroma weighting.
const pow25_7 = 6103515625.0

// Distance returns the CIEDE2000 color difference between two Lab colors
// with Kl=Kc=Kh=1 (Sharma, Wu, Dalal 2005). It is symmetric and zero iff the
// colors are identical. This is the sole similarity metric used for ranking;
// Euclidean Lab distance is known to misrank perceptually.
func Distance(c1, c2 domain.Lab) float64 {
	cab1 := math.Hypot(c1.A, c1.B)
	cab2 := math.Hypot(c2.A, c2.B)
	cabBar := (cab1 + cab2) / 2
	cabBar7 := pow7(cabBar)
	g := 0.5 * (1 - math.Sqrt(cabBar7/(cabBar7+pow25_7)))

	a1p := (1 + g) * c1.A
	a2p := (1 + g) * c2.A
	c1p := math.Hypot(a1p, c1.B)
	c2p := math.Hypot(a2p, c2.B)
	h1p := hueDeg(a1p, c1.B)
	h2p := hueDeg(a2p, c2.B)

	dLp := c2.L - c1.L
	dCp := c2p - c1p

	var dhp float64
	switch {
	case c1p*c2p == 0:
		dhp = 0
	case math.Abs(h2p-h1p) <= 180:
		dhp = h2p - h1p
	case h2p-h1p > 180:
		dhp = h2p - h1p - 360
	default:
		dhp = h2p - h1p + 360
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(rad(dhp)/2)

	lBarP := (c1.L + c2.L) / 2
	cBarP := (c1p + c2p) / 2

	var hBarP float64
	switch {
	case c1p*c2p == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2
	default:
		hBarP = (h1p + h2p - 360) / 2
	}

	t := 1 - 0.17*math.Cos(rad(hBarP-30)) + 0.24*math.Cos(rad(2*hBarP)) +
		0.32*math.Cos(rad(3*hBarP+6)) - 0.20*math.Cos(rad(4*hBarP-63))

	dTheta := 30 * math.Exp(-((hBarP-275)/25)*((hBarP-275)/25))
	cBarP7 := pow7(cBarP)
	rc := 2 * math.Sqrt(cBarP7/(cBarP7+pow25_7))
	rt := -math.Sin(rad(2*dTheta)) * rc

	lDev := lBarP - 50
	sl := 1 + 0.015*lDev*lDev/math.Sqrt(20+lDev*lDev)
	sc := 1 + 0.045*cBarP
	sh := 1 + 0.015*cBarP*t

	// Kl = Kc = Kh = 1
	return math.Sqrt(
		(dLp/sl)*(dLp/sl) +
			(dCp/sc)*(dCp/sc) +
			(dHp/sh)*(dHp/sh) +
			rt*(dCp/sc)*(dHp/sh))
}

// hueDeg returns the hue angle in degrees within [0,360).
func hueDeg(ap, b float64) float64 {
	if ap == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, ap) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

func pow7(x float64) float64 {
	x2 := x * x
	return x2 * x2 * x2 * x
}
