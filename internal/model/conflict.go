package model

import "fmt"

// Conflict records that Blocking's footprint covers one of Blocked's pickup areas.
type Conflict struct {
	Blocking ProbeKey   `json:"blocking"`
	Blocked  ProbeKey   `json:"blocked"`
	Area     PickupCode `json:"area"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s blocks %s %s", c.Blocking, c.Blocked, c.Area)
}

// BlockersOf returns the distinct probes blocking key, in first-seen order.
func BlockersOf(key ProbeKey, conflicts []Conflict) []ProbeKey {
	seen := make(map[ProbeKey]bool)
	var out []ProbeKey
	for _, c := range conflicts {
		if c.Blocked == key && !seen[c.Blocking] {
			seen[c.Blocking] = true
			out = append(out, c.Blocking)
		}
	}
	return out
}
