package model

import "sort"

// GalaxyRecord remembers which bundle each galaxy was observed with.
// One record lives for the whole survey run and is updated once per tile.
type GalaxyRecord struct {
	Bundles map[string]string `json:"bundles"`
}

// NewGalaxyRecord returns an empty record for the start of a survey.
func NewGalaxyRecord() *GalaxyRecord {
	return &GalaxyRecord{Bundles: make(map[string]string)}
}

// Lookup returns the bundle recorded for galaxyID.
func (r *GalaxyRecord) Lookup(galaxyID string) (string, bool) {
	if r == nil || r.Bundles == nil {
		return "", false
	}
	b, ok := r.Bundles[galaxyID]
	return b, ok
}

// Set records bundle for galaxyID, overwriting any previous value.
func (r *GalaxyRecord) Set(galaxyID, bundle string) {
	if r.Bundles == nil {
		r.Bundles = make(map[string]string)
	}
	r.Bundles[galaxyID] = bundle
}

// Len returns the number of recorded galaxies.
func (r *GalaxyRecord) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Bundles)
}

// Clone returns an independent copy.
func (r *GalaxyRecord) Clone() *GalaxyRecord {
	out := NewGalaxyRecord()
	if r == nil {
		return out
	}
	for k, v := range r.Bundles {
		out.Bundles[k] = v
	}
	return out
}

// GalaxyIDs returns the recorded galaxy ids sorted.
func (r *GalaxyRecord) GalaxyIDs() []string {
	ids := make([]string, 0, r.Len())
	if r == nil {
		return ids
	}
	for id := range r.Bundles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
