package geo

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	p := Coordinates{Latitude: 12.8014, Longitude: 80.2237}

	if d := Haversine(p, p); d != 0 {
		t.Errorf("expected zero distance for identical points, got %f", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Chennai venue to a point roughly 1km north.
	venue := Coordinates{Latitude: 12.80147378887274, Longitude: 80.22372835171538}
	north := Coordinates{Latitude: 12.810466, Longitude: 80.22372835171538}

	d := Haversine(venue, north)
	if math.Abs(d-1000) > 10 {
		t.Errorf("expected ~1000m, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Coordinates{Latitude: 12.97, Longitude: 77.59}
	b := Coordinates{Latitude: 12.80, Longitude: 80.22}

	if d1, d2 := Haversine(a, b), Haversine(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestStaticProvider(t *testing.T) {
	p := &StaticProvider{Coords: Coordinates{Latitude: 12.97, Longitude: 77.59}}

	coords, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coords.Latitude != 12.97 || coords.Longitude != 77.59 {
		t.Errorf("unexpected coordinates %+v", coords)
	}
}

func TestCommandProvider_NotConfigured(t *testing.T) {
	p := &CommandProvider{Command: ""}

	_, err := p.Current(context.Background())

	var locErr *LocationError
	if !errors.As(err, &locErr) {
		t.Fatalf("expected LocationError, got %v", err)
	}
}

func TestCommandProvider_MissingHelper(t *testing.T) {
	p := &CommandProvider{Command: "no-such-location-helper-xyz"}

	_, err := p.Current(context.Background())

	var locErr *LocationError
	if !errors.As(err, &locErr) {
		t.Fatalf("expected LocationError, got %v", err)
	}
}

func TestCommandProvider_ParsesJSON(t *testing.T) {
	p := &CommandProvider{Command: `echo {"latitude":12.97,"longitude":77.59}`}

	coords, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coords.Latitude != 12.97 || coords.Longitude != 77.59 {
		t.Errorf("unexpected coordinates %+v", coords)
	}
}

func TestCommandProvider_InvalidOutput(t *testing.T) {
	p := &CommandProvider{Command: "echo not-json"}

	_, err := p.Current(context.Background())

	var locErr *LocationError
	if !errors.As(err, &locErr) {
		t.Fatalf("expected LocationError, got %v", err)
	}
}
