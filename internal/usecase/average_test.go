package usecase

import (
	"math"
	"testing"

	"github.com/shadematch/backend/internal/domain"
)

func TestComputeAverageColor_EmptyInput(t *testing.T) {
	got := ComputeAverageColor(nil)
	if !got.IsZero() {
		t.Errorf("ComputeAverageColor(nil) = %v, want zero color", got)
	}
}

func TestComputeAverageColor_SinglePoint(t *testing.T) {
	point := domain.Lab{L: 56.7, A: 11.4, B: 17.9}
	got := ComputeAverageColor([]domain.Lab{point})
	if got != point {
		t.Errorf("ComputeAverageColor(single) = %v, want %v", got, point)
	}
}

func TestComputeAverageColor_TightClusterKeepsAllPoints(t *testing.T) {
	points := []domain.Lab{
		{L: 50.0, A: 10.0, B: 15.0},
		{L: 50.5, A: 10.2, B: 15.1},
		{L: 49.5, A: 9.8, B: 14.9},
	}
	got := ComputeAverageColor(points)

	want := domain.Lab{L: 50.0, A: 10.0, B: 15.0}
	if math.Abs(got.L-want.L) > 1e-9 || math.Abs(got.A-want.A) > 1e-9 || math.Abs(got.B-want.B) > 1e-9 {
		t.Errorf("ComputeAverageColor() = %v, want mean %v of full cluster", got, want)
	}
}

func TestComputeAverageColor_DiscardsOutlier(t *testing.T) {
	cluster := []domain.Lab{
		{L: 55.0, A: 12.0, B: 18.0},
		{L: 55.4, A: 12.1, B: 18.2},
		{L: 54.6, A: 11.9, B: 17.8},
	}
	// A dark shadow sample far outside the cluster.
	outlier := domain.Lab{L: 20.0, A: 2.0, B: 5.0}

	got := ComputeAverageColor(append(append([]domain.Lab{}, cluster...), outlier))

	want := meanColor(cluster)
	if math.Abs(got.L-want.L) > 1e-9 || math.Abs(got.A-want.A) > 1e-9 || math.Abs(got.B-want.B) > 1e-9 {
		t.Errorf("ComputeAverageColor() = %v, want cluster mean %v with outlier removed", got, want)
	}
}

func TestComputeAverageColor_DuplicateOutliersRemovedOneAtATime(t *testing.T) {
	cluster := []domain.Lab{
		{L: 55.0, A: 12.0, B: 18.0},
		{L: 55.2, A: 12.0, B: 18.0},
		{L: 54.8, A: 12.0, B: 18.0},
		{L: 55.0, A: 12.2, B: 18.1},
	}
	outlier := domain.Lab{L: 20.0, A: 2.0, B: 5.0}
	// Two samples with identical values: removal is by index, so both get
	// peeled and neither shadows the other.
	points := append([]domain.Lab{outlier, outlier}, cluster...)

	got := ComputeAverageColor(points)

	want := meanColor(cluster)
	if math.Abs(got.L-want.L) > 1e-6 || math.Abs(got.A-want.A) > 1e-6 || math.Abs(got.B-want.B) > 1e-6 {
		t.Errorf("ComputeAverageColor() = %v, want cluster mean %v with both duplicates removed", got, want)
	}
}

func TestComputeAverageColor_WidelySpreadTerminates(t *testing.T) {
	// Pathological spread: peeling must terminate, worst case at one point.
	points := []domain.Lab{
		{L: 0, A: -120, B: 120},
		{L: 100, A: 120, B: -120},
		{L: 50, A: 0, B: 0},
		{L: 25, A: 60, B: -60},
	}
	got := ComputeAverageColor(points)
	if math.IsNaN(got.L) || math.IsNaN(got.A) || math.IsNaN(got.B) {
		t.Errorf("ComputeAverageColor() = %v, want a finite color", got)
	}
}

func TestComputeAverageColor_DoesNotMutateInput(t *testing.T) {
	points := []domain.Lab{
		{L: 55.0, A: 12.0, B: 18.0},
		{L: 20.0, A: 2.0, B: 5.0},
		{L: 54.8, A: 12.1, B: 17.9},
	}
	original := append([]domain.Lab(nil), points...)

	ComputeAverageColor(points)

	for i := range points {
		if points[i] != original[i] {
			t.Fatalf("input slice mutated at %d: %v != %v", i, points[i], original[i])
		}
	}
}
