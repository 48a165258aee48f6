package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/pricing"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedCatalog []byte

// Entry is a catalog facility with its initial availability.
type Entry struct {
	Facility  *facility.Facility
	Available int
}

type fileFormat struct {
	Facilities []facilityRecord `yaml:"facilities"`
}

type facilityRecord struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Address   string  `yaml:"address"`
	City      string  `yaml:"city"`
	Lat       float64 `yaml:"lat"`
	Lng       float64 `yaml:"lng"`
	Rate      string  `yaml:"rate"`
	Capacity  int     `yaml:"capacity"`
	Available *int    `yaml:"available"`
}

// Load reads the catalog at path, or the embedded seed catalog when path is empty.
func Load(path string) ([]Entry, error) {
	data := seedCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) ([]Entry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Facilities) == 0 {
		return nil, fmt.Errorf("catalog has no facilities")
	}

	seen := make(map[string]struct{}, len(f.Facilities))
	entries := make([]Entry, 0, len(f.Facilities))
	for i, r := range f.Facilities {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}

		e, err := r.toEntry()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, r.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r facilityRecord) toEntry() (Entry, error) {
	rate, err := pricing.ParseMoney(r.Rate)
	if err != nil {
		return Entry{}, err
	}
	coord, err := facility.NewCoordinate(r.Lat, r.Lng)
	if err != nil {
		return Entry{}, err
	}
	f, err := facility.NewFacility(facility.ID(r.ID), r.Name, r.Address, r.City, coord, rate, r.Capacity)
	if err != nil {
		return Entry{}, err
	}

	available := r.Capacity
	if r.Available != nil {
		available = *r.Available
	}
	if available < 0 || available > r.Capacity {
		return Entry{}, fmt.Errorf("available %d outside [0, %d]", available, r.Capacity)
	}
	return Entry{Facility: f, Available: available}, nil
}
