package model

import "github.com/google/uuid"

// PlacementRow is one assembled output record for the robot.
type PlacementRow struct {
	Kind         ProbeKind `json:"kind"`
	Label        string    `json:"label"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	PickupAngle  float64   `json:"rotation_pickup"`
	PutdownAngle float64   `json:"rotation_putdown"`
	Order        int       `json:"order"`
	PickupCode   string    `json:"pickup_option"`
	GalaxyID     string    `json:"galaxy_id"`
	Index        int       `json:"index"`
	Bundle       string    `json:"hexabundle"`
}

// Tile identifies one plate configuration of the survey.
type Tile struct {
	ID    string `json:"id"`
	Field string `json:"field,omitempty"`
}

func (t Tile) String() string {
	if t.Field == "" {
		return t.ID
	}
	return t.Field + "/" + t.ID
}

// TilePlan is the full result of planning one tile.
type TilePlan struct {
	RunID      string         `json:"run_id"`
	Tile       Tile           `json:"tile"`
	Rows       []PlacementRow `json:"rows"`
	Conflicts  []Conflict     `json:"conflicts"`
	Blocked    []ProbeKey     `json:"fully_blocked"`
	Unresolved []ProbeKey     `json:"unresolved"`
	Flags      []string       `json:"flags"`
}

// NewTilePlan starts an empty plan stamped with a short run id.
func NewTilePlan(tile Tile) *TilePlan {
	return &TilePlan{
		RunID: uuid.New().String()[:8],
		Tile:  tile,
	}
}

// MaxOrder returns the largest placement order in the plan.
func (tp *TilePlan) MaxOrder() int {
	max := 0
	for _, r := range tp.Rows {
		if r.Order > max {
			max = r.Order
		}
	}
	return max
}
