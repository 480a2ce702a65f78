package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHaversineMilesSamePointIsZero(t *testing.T) {
	require.InDelta(t, 0.0, HaversineMiles(37.7749, -122.4194, 37.7749, -122.4194), 1e-9)
}

func TestHaversineMilesKnownDistance(t *testing.T) {
	// San Francisco to Los Angeles, roughly 347 statute miles.
	d := HaversineMiles(37.7749, -122.4194, 34.0522, -118.2437)
	require.InDelta(t, 347.4, d, 5.0)
}

func TestWithinRadius(t *testing.T) {
	// ~347mi apart: inside a 400mi radius, outside a 100mi radius.
	require.True(t, WithinRadius(37.7749, -122.4194, 34.0522, -118.2437, 400))
	require.False(t, WithinRadius(37.7749, -122.4194, 34.0522, -118.2437, 100))
}

func TestMockGeocodeReturnsFixedCoordinates(t *testing.T) {
	m := NewMock()
	lat, lon, confidence, err := m.Geocode(context.Background(), "1600 Amphitheatre Pkwy")
	require.NoError(t, err)
	require.Equal(t, m.Lat, lat)
	require.Equal(t, m.Lon, lon)
	require.Equal(t, m.Confidence, confidence)
}
