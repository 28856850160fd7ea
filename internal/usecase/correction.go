package usecase

import (
	"math"

	"github.com/shadematch/backend/internal/domain"
)

// CorrectionParams are the empirically tuned constants of the bias
// correction applied to catalog colors before distance comparison. They
// compensate for the systematic offset between device-scanned skin colors
// and studio catalog colors and are specific to a deployment's camera and
// catalog pipeline, so they live in configuration.
type CorrectionParams struct {
	ScaleL float64
	ScaleA float64
	ScaleB float64

	// Euler angles in degrees, applied about the correction center in the
	// order X, Y, Z.
	RotXDeg float64
	RotYDeg float64
	RotZDeg float64

	OffsetL float64
	OffsetA float64
	OffsetB float64
}

// DefaultCorrectionParams returns the tuned constants of the current
// deployment.
func DefaultCorrectionParams() CorrectionParams {
	return CorrectionParams{
		ScaleL:  0.8,
		ScaleA:  0.6,
		ScaleB:  0.6,
		RotXDeg: 0,
		RotYDeg: 10,
		RotZDeg: -25,
		OffsetL: -10,
		OffsetA: -4,
		OffsetB: -7,
	}
}

// defaultCenter anchors the transform when the candidate set contains no
// rescanned products: neutral mid-gray.
var defaultCenter = domain.Lab{L: 50, A: 0, B: 0}

// Corrector applies the bias correction transform around a center color
// derived from the current candidate set.
type Corrector struct {
	params CorrectionParams
	center domain.Lab
}

// NewCorrector builds a corrector for one match call.
func NewCorrector(params CorrectionParams, center domain.Lab) Corrector {
	return Corrector{params: params, center: center}
}

// Center returns the correction center in use.
func (c Corrector) Center() domain.Lab {
	return c.center
}

// Correct transforms a catalog color into the scanned-color space:
// scale about the center, rotate about the center (X then Y then Z), then
// un-center and translate by the fixed offset.
func (c Corrector) Correct(col domain.Lab) domain.Lab {
	p := c.params

	l := c.center.L + (col.L-c.center.L)*p.ScaleL
	a := c.center.A + (col.A-c.center.A)*p.ScaleA
	b := c.center.B + (col.B-c.center.B)*p.ScaleB

	x := l - c.center.L
	y := a - c.center.A
	z := b - c.center.B

	if rot := radians(p.RotXDeg); rot != 0 {
		y, z = y*math.Cos(rot)-z*math.Sin(rot), y*math.Sin(rot)+z*math.Cos(rot)
	}
	if rot := radians(p.RotYDeg); rot != 0 {
		x, z = x*math.Cos(rot)+z*math.Sin(rot), -x*math.Sin(rot)+z*math.Cos(rot)
	}
	if rot := radians(p.RotZDeg); rot != 0 {
		x, y = x*math.Cos(rot)-y*math.Sin(rot), x*math.Sin(rot)+y*math.Cos(rot)
	}

	return domain.Lab{
		L: x + c.center.L + p.OffsetL,
		A: y + c.center.A + p.OffsetA,
		B: z + c.center.B + p.OffsetB,
	}
}

// CorrectionCenter computes the center of the bias correction for a
// candidate set: the mean catalog color over products that carry a color,
// restricted to rescanned products when onlyRescanned is set. With no
// qualifying products the neutral default center is used.
func CorrectionCenter(products []domain.Product, onlyRescanned bool) domain.Lab {
	var sum domain.Lab
	count := 0
	for _, p := range products {
		if !p.HasColor {
			continue
		}
		if onlyRescanned && !p.Rescanned() {
			continue
		}
		sum.L += p.ColorLab.L
		sum.A += p.ColorLab.A
		sum.B += p.ColorLab.B
		count++
	}
	if count == 0 {
		return defaultCenter
	}
	n := float64(count)
	return domain.Lab{L: sum.L / n, A: sum.A / n, B: sum.B / n}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
