package queries

import (
	"context"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/usecase/shared"
)

//go:generate mockgen -source=facility.go -destination=../../../tests/mock/queries/facility.go -package=queriesmock

type FacilityQueries interface {
	List(ctx context.Context, city string, selectableOnly bool) ([]*FacilityView, error)
	Get(ctx context.Context, id facility.ID) (*FacilityView, error)
}

type facilityQueriesImpl struct {
	registry shared.InventoryRegistry
	currency string
}

func NewFacilityQueries(registry shared.InventoryRegistry, currency string) FacilityQueries {
	return &facilityQueriesImpl{registry: registry, currency: currency}
}

func (q *facilityQueriesImpl) List(ctx context.Context, city string, selectableOnly bool) ([]*FacilityView, error) {
	views := make([]*FacilityView, 0)
	for snap, err := range q.registry.ListFacilities(ctx, city) {
		if err != nil {
			return nil, err
		}
		if selectableOnly && !snap.Selectable() {
			continue
		}
		views = append(views, NewFacilityView(snap, q.currency))
	}
	return views, nil
}

func (q *facilityQueriesImpl) Get(ctx context.Context, id facility.ID) (*FacilityView, error) {
	snap, err := q.registry.Facility(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewFacilityView(snap, q.currency), nil
}

func NewFacilityView(s facility.Snapshot, currency string) *FacilityView {
	return &FacilityView{
		ID:         s.ID.String(),
		Name:       s.Name,
		Address:    s.Address,
		City:       s.City,
		Lat:        s.Coordinate.Lat(),
		Lng:        s.Coordinate.Lng(),
		RateMinor:  s.Rate.Minor(),
		Rate:       s.Rate.String(),
		Currency:   currency,
		Capacity:   s.Capacity,
		Available:  s.Available,
		Selectable: s.Selectable(),
	}
}
