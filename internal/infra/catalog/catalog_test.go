//go:build unit

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/infra/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed(t *testing.T) {
	entries, err := catalog.Load("")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	want := map[facility.ID]struct {
		rateMinor int64
		capacity  int
		available int
	}{
		"cbd-parking-complex":      {6000, 50, 12},
		"westlands-secure-parking": {8000, 30, 8},
		"karen-shopping-center":    {5000, 40, 15},
		"thika-road-mall":          {7000, 100, 25},
	}
	for _, e := range entries {
		w, ok := want[e.Facility.ID()]
		require.True(t, ok, "unexpected facility %s", e.Facility.ID())
		assert.Equal(t, w.rateMinor, e.Facility.Rate().Minor())
		assert.Equal(t, w.capacity, e.Facility.Capacity())
		assert.Equal(t, w.available, e.Available)
		assert.Equal(t, "Nairobi", e.Facility.City())
	}
	assert.Equal(t, facility.ID("cbd-parking-complex"), entries[0].Facility.ID(), "file order is kept")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
facilities:
  - id: nyali-centre
    name: Nyali Centre
    address: Links Road
    city: Mombasa
    lat: -4.0435
    lng: 39.7100
    rate: "45.50"
    capacity: 20
`), 0o600))

	entries, err := catalog.Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4550), entries[0].Facility.Rate().Minor())
	assert.Equal(t, 20, entries[0].Available, "available defaults to capacity")

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	const valid = `
  - id: a
    name: A
    address: x
    city: Nairobi
    lat: -1
    lng: 36
    rate: "60"
    capacity: 10
`
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "facilities: []"},
		{"malformed", "facilities: [::"},
		{"duplicate id", "facilities:" + valid + valid},
		{"bad rate", `facilities:
  - {id: a, name: A, city: Nairobi, lat: -1, lng: 36, rate: "sixty", capacity: 10}`},
		{"zero rate", `facilities:
  - {id: a, name: A, city: Nairobi, lat: -1, lng: 36, rate: "0", capacity: 10}`},
		{"available above capacity", `facilities:
  - {id: a, name: A, city: Nairobi, lat: -1, lng: 36, rate: "60", capacity: 10, available: 11}`},
		{"negative available", `facilities:
  - {id: a, name: A, city: Nairobi, lat: -1, lng: 36, rate: "60", capacity: 10, available: -1}`},
		{"bad coordinate", `facilities:
  - {id: a, name: A, city: Nairobi, lat: -91, lng: 36, rate: "60", capacity: 10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
