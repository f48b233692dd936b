package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(50.4501, 30.5234, 50.4501, 30.5234); d != 0 {
		t.Errorf("distance(A,A) = %v, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(50.4501, 30.5234, 50.4547, 30.5238)
	d2 := Distance(50.4547, 30.5238, 50.4501, 30.5234)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tol                    float64
	}{
		// One degree of latitude is ~111.19 km on a 6371 km sphere.
		{"one degree latitude", 0, 0, 1, 0, 111195, 10},
		// ~510 m between two points in central Kyiv.
		{"city block scale", 50.4501, 30.5234, 50.4547, 30.5238, 512, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance = %.1f, want %.1f ± %.1f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestWithinRadiusBoundaryInclusive(t *testing.T) {
	lat1, lon1 := 50.4501, 30.5234
	lat2, lon2 := 50.4547, 30.5238
	d := Distance(lat1, lon1, lat2, lon2)

	if !WithinRadius(lat1, lon1, lat2, lon2, d) {
		t.Error("point exactly at boundary radius should be included")
	}
	if WithinRadius(lat1, lon1, lat2, lon2, d-1) {
		t.Error("point 1m outside radius should be excluded")
	}
	if !WithinRadius(lat1, lon1, lat2, lon2, d+1) {
		t.Error("point 1m inside radius should be included")
	}
}

func TestWithinRadiusSamePoint(t *testing.T) {
	if !WithinRadius(10, 20, 10, 20, 0) {
		t.Error("zero distance should be within zero radius")
	}
}
