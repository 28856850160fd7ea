package usecase

import (
	"github.com/shadematch/backend/internal/colorspace"
	"github.com/shadematch/backend/internal/domain"
)

// maxSampleDistance is the convergence threshold for outlier peeling, in
// CIEDE2000 units. A scan point further than this from the running mean is
// considered an outlier (hairline, shadow, sensor glare).
const maxSampleDistance = 5.0

// ComputeAverageColor collapses raw scan samples into one representative
// color by iterative outlier peeling: compute the mean, find the furthest
// sample, and drop it until the furthest sample is within maxSampleDistance
// of the mean. The empty set returns the zero color.
//
// When several samples are equally far from the mean, the one at the lowest
// index is removed, so duplicate-valued samples cannot shadow each other.
func ComputeAverageColor(points []domain.Lab) domain.Lab {
	if len(points) == 0 {
		return domain.Lab{}
	}

	remaining := append([]domain.Lab(nil), points...)
	for {
		mean := meanColor(remaining)
		if len(remaining) == 1 {
			return mean
		}

		furthest := 0
		maxDist := -1.0
		for i, p := range remaining {
			if d := colorspace.Distance(p, mean); d > maxDist {
				maxDist = d
				furthest = i
			}
		}
		if maxDist < maxSampleDistance {
			return mean
		}
		remaining = append(remaining[:furthest], remaining[furthest+1:]...)
	}
}

func meanColor(points []domain.Lab) domain.Lab {
	var sum domain.Lab
	for _, p := range points {
		sum.L += p.L
		sum.A += p.A
		sum.B += p.B
	}
	n := float64(len(points))
	return domain.Lab{L: sum.L / n, A: sum.A / n, B: sum.B / n}
}
