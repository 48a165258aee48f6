package facility

import (
	"strings"

	"parking-reservation/internal/domain/pricing"
)

type ID string

func (id ID) String() string {
	return string(id)
}

// Facility is read-mostly catalog metadata. Live availability is tracked
// separately by the inventory registry and joined in a Snapshot.
type Facility struct {
	id         ID
	name       string
	address    string
	city       string
	coordinate Coordinate
	rate       pricing.Money
	capacity   int
}

func NewFacility(id ID, name, address, city string, coordinate Coordinate, rate pricing.Money, capacity int) (*Facility, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrEmptyID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !rate.IsPositive() {
		return nil, ErrInvalidRate
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Facility{
		id:         id,
		name:       name,
		address:    strings.TrimSpace(address),
		city:       strings.TrimSpace(city),
		coordinate: coordinate,
		rate:       rate,
		capacity:   capacity,
	}, nil
}

func (f *Facility) ID() ID                 { return f.id }
func (f *Facility) Name() string           { return f.name }
func (f *Facility) Address() string        { return f.address }
func (f *Facility) City() string           { return f.city }
func (f *Facility) Coordinate() Coordinate { return f.coordinate }
func (f *Facility) Rate() pricing.Money    { return f.rate }
func (f *Facility) Capacity() int          { return f.capacity }

// Snapshot pairs the facility metadata with availability at a point in time.
func (f *Facility) Snapshot(available int) Snapshot {
	return Snapshot{
		ID:         f.id,
		Name:       f.name,
		Address:    f.address,
		City:       f.city,
		Coordinate: f.coordinate,
		Rate:       f.rate,
		Capacity:   f.capacity,
		Available:  available,
	}
}

type Snapshot struct {
	ID         ID
	Name       string
	Address    string
	City       string
	Coordinate Coordinate
	Rate       pricing.Money
	Capacity   int
	Available  int
}

func (s Snapshot) Selectable() bool {
	return s.Available > 0
}
