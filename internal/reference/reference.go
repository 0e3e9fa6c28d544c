// Package reference serves the static district and upazila tables used to
// label donation request locations.
package reference

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"redaid/pkg/types"
)

//go:embed data/*.json
var dataFS embed.FS

type Locations struct {
	districts []*types.District
	byID      map[string]*types.District
	upazilas  map[string][]*types.Upazila
}

// Load reads the embedded tables once.
func Load() (*Locations, error) {
	var districts []*types.District
	if err := readJSON("data/districts.json", &districts); err != nil {
		return nil, err
	}

	var upazilas []*types.Upazila
	if err := readJSON("data/upazilas.json", &upazilas); err != nil {
		return nil, err
	}

	l := &Locations{
		districts: districts,
		byID:      make(map[string]*types.District, len(districts)),
		upazilas:  make(map[string][]*types.Upazila),
	}

	for _, d := range districts {
		l.byID[d.ID] = d
	}

	for _, u := range upazilas {
		if _, ok := l.byID[u.DistrictID]; !ok {
			return nil, fmt.Errorf("upazila %s references unknown district %s", u.ID, u.DistrictID)
		}
		l.upazilas[u.DistrictID] = append(l.upazilas[u.DistrictID], u)
	}

	sort.Slice(l.districts, func(i, j int) bool { return l.districts[i].Name < l.districts[j].Name })

	return l, nil
}

func readJSON(path string, dst any) error {
	raw, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (l *Locations) Districts() []*types.District {
	return l.districts
}

func (l *Locations) District(id string) (*types.District, bool) {
	d, ok := l.byID[id]
	return d, ok
}

// Upazilas returns the upazilas of a district, or all of them for "".
func (l *Locations) Upazilas(districtID string) []*types.Upazila {
	if districtID != "" {
		return l.upazilas[districtID]
	}

	out := make([]*types.Upazila, 0)
	for _, d := range l.districts {
		out = append(out, l.upazilas[d.ID]...)
	}
	return out
}

// ValidLocation reports whether upazila (by name) lies in the district.
func (l *Locations) ValidLocation(districtID, upazila string) bool {
	for _, u := range l.upazilas[districtID] {
		if u.Name == upazila {
			return true
		}
	}
	return false
}

// DistrictName labels a district id, falling back to the id itself.
func (l *Locations) DistrictName(id string) string {
	if d, ok := l.byID[id]; ok {
		return d.Name
	}
	return id
}
