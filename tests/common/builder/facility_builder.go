//go:build unit || e2e

package builder

import (
	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/infra/catalog"
)

type FacilityBuilder struct {
	ID        string
	Name      string
	Address   string
	City      string
	Lat       float64
	Lng       float64
	RateMinor int64
	Capacity  int
	Available int
}

func NewFacilityBuilder() *FacilityBuilder {
	return &FacilityBuilder{
		ID:        "cbd-parking-complex",
		Name:      "CBD Parking Complex",
		Address:   "Moi Avenue, Nairobi CBD",
		City:      "Nairobi",
		Lat:       -1.2921,
		Lng:       36.8219,
		RateMinor: 6000,
		Capacity:  50,
		Available: 12,
	}
}

func (f *FacilityBuilder) With(mutate func(*FacilityBuilder)) *FacilityBuilder {
	mutate(f)
	return f
}

func (f *FacilityBuilder) WithID(id string) *FacilityBuilder {
	f.ID = id
	return f
}

func (f *FacilityBuilder) WithAvailable(n int) *FacilityBuilder {
	f.Available = n
	return f
}

func (f *FacilityBuilder) WithRate(minor int64) *FacilityBuilder {
	f.RateMinor = minor
	return f
}

// Build methods
func (f *FacilityBuilder) BuildDomain() (*facility.Facility, error) {
	coord, err := facility.NewCoordinate(f.Lat, f.Lng)
	if err != nil {
		return nil, err
	}
	return facility.NewFacility(facility.ID(f.ID), f.Name, f.Address, f.City, coord, pricing.NewMoney(f.RateMinor), f.Capacity)
}

func (f *FacilityBuilder) BuildEntry() (catalog.Entry, error) {
	dom, err := f.BuildDomain()
	if err != nil {
		return catalog.Entry{}, err
	}
	return catalog.Entry{Facility: dom, Available: f.Available}, nil
}

func (f *FacilityBuilder) BuildSnapshot() facility.Snapshot {
	coord, _ := facility.NewCoordinate(f.Lat, f.Lng)
	return facility.Snapshot{
		ID:         facility.ID(f.ID),
		Name:       f.Name,
		Address:    f.Address,
		City:       f.City,
		Coordinate: coord,
		Rate:       pricing.NewMoney(f.RateMinor),
		Capacity:   f.Capacity,
		Available:  f.Available,
	}
}
