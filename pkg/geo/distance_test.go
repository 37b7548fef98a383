package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		expected               float64
		tolerance              float64
	}{
		{"same point", 51.5074, -0.1278, 51.5074, -0.1278, 0, 1e-9},
		{"london cafe to gym", 51.5074, -0.1278, 51.5100, -0.1300, 0.33, 0.01},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5, 1.0},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, expected %f (±%f)", got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistanceMeters_MatchesKm(t *testing.T) {
	km := DistanceKm(51.5074, -0.1278, 51.5100, -0.1300)
	m := DistanceMeters(51.5074, -0.1278, 51.5100, -0.1300)

	if math.Abs(m-km*1000) > 1e-6 {
		t.Errorf("DistanceMeters() = %f, expected %f", m, km*1000)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	b := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)

	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestRoundTenth(t *testing.T) {
	if got := RoundTenth(0.3349); got != 0.3 {
		t.Errorf("RoundTenth(0.3349) = %f, expected 0.3", got)
	}
	if got := RoundTenth(2.25); got != 2.3 {
		t.Errorf("RoundTenth(2.25) = %f, expected 2.3", got)
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(51.5, -0.12) {
		t.Error("Expected London coordinates to be valid")
	}
	if ValidCoordinates(91, 0) {
		t.Error("Expected latitude 91 to be invalid")
	}
	if ValidCoordinates(0, -181) {
		t.Error("Expected longitude -181 to be invalid")
	}
}
