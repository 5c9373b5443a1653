package robotfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Profile describes the command dialect of one placement robot controller.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	StartCode []string `json:"start_code"` // commands at start of file
	EndCode   []string `json:"end_code"`   // commands at end of file, [SafeZ] is substituted
	Home      string   `json:"home"`

	RapidMove  string `json:"rapid_move"` // G0 or equivalent
	FeedMove   string `json:"feed_move"`  // G1 or equivalent
	RotateAxis string `json:"rotate_axis"`

	// Gripper commands. Pick takes the bundle id as its single %s verb.
	Pick    string `json:"pick"`
	Grip    string `json:"grip"`
	Release string `json:"release"`

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"`
	DecimalPlaces int    `json:"decimal_places"`

	IsBuiltIn bool `json:"-"`
}

// Profiles are the built-in controller dialects.
var Profiles = []Profile{
	{
		Name:          "Grbl",
		Description:   "Grbl gantry with the gripper on the coolant outputs",
		StartCode:     []string{"G90", "G21", "G17"},
		Home:          "$H",
		RapidMove:     "G0",
		FeedMove:      "G1",
		RotateAxis:    "A",
		Pick:          "; load %s",
		Grip:          "M8",
		Release:       "M9",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
		IsBuiltIn:     true,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC with the gripper on digital output 0",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		Home:          "G28 X0 Y0 Z0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		RotateAxis:    "A",
		Pick:          "(MSG, load %s)",
		Grip:          "M64 P0",
		Release:       "M65 P0",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M2"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
		IsBuiltIn:     true,
	},
	{
		Name:          "Generic",
		Description:   "Generic placement robot",
		StartCode:     []string{"G90", "G21"},
		Home:          "G28 X0 Y0 Z0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		RotateAxis:    "R",
		Pick:          "M100 P%s",
		Grip:          "M101",
		Release:       "M102",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
		IsBuiltIn:     true,
	},
}

// CustomProfiles holds profiles loaded from disk.
var CustomProfiles []Profile

// GetProfile returns a profile by name, custom profiles first, or the
// Generic profile if not found.
func GetProfile(name string) Profile {
	for _, p := range CustomProfiles {
		if p.Name == name {
			return p
		}
	}
	for _, p := range Profiles {
		if p.Name == name {
			return p
		}
	}
	return Profiles[len(Profiles)-1]
}

// HasProfile reports whether name is a known profile.
func HasProfile(name string) bool {
	for _, n := range ProfileNames() {
		if n == name {
			return true
		}
	}
	return false
}

// ProfileNames returns all available profile names.
func ProfileNames() []string {
	var names []string
	for _, p := range Profiles {
		names = append(names, p.Name)
	}
	for _, p := range CustomProfiles {
		names = append(names, p.Name)
	}
	return names
}

// SaveProfiles writes custom profiles to a JSON file.
func SaveProfiles(path string, profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfiles reads custom profiles from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Profile{}, nil
		}
		return nil, err
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: profile %d has no name", path, i+1)
		}
		if !validPick(p.Pick) {
			return nil, fmt.Errorf("%s: profile %q: pick must contain exactly one %%s", path, p.Name)
		}
		if p.DecimalPlaces <= 0 {
			profiles[i].DecimalPlaces = 3
		}
	}
	return profiles, nil
}

// validPick reports whether a pick template is empty or carries exactly one
// %s and no other verb.
func validPick(pick string) bool {
	return pick == "" || (strings.Count(pick, "%") == 1 && strings.Contains(pick, "%s"))
}
