package model

// PlateGeometry holds the physical dimensions used by the conflict checks, in mm.
type PlateGeometry struct {
	PlateRadius       float64 `yaml:"plate_radius" json:"plate_radius"`
	CircularRadius    float64 `yaml:"circular_radius" json:"circular_radius"`
	RectangularLength float64 `yaml:"rectangular_length" json:"rectangular_length"`
	RectangularWidth  float64 `yaml:"rectangular_width" json:"rectangular_width"`
	GripperArmLength  float64 `yaml:"gripper_arm_length" json:"gripper_arm_length"`
	GripperArmWidth   float64 `yaml:"gripper_arm_width" json:"gripper_arm_width"`
	PairDistance      float64 `yaml:"pair_distance" json:"pair_distance"` // Circular to rectangular center
}

// ProximityThreshold is the center distance below which two probes are tested.
func (g PlateGeometry) ProximityThreshold() float64 {
	return g.RectangularLength + g.GripperArmWidth
}

// DefaultGeometry returns the plate dimensions of the standard positioner.
func DefaultGeometry() PlateGeometry {
	return PlateGeometry{
		PlateRadius:       331.0,
		CircularRadius:    10.0,
		RectangularLength: 34.4,
		RectangularWidth:  8.0,
		GripperArmLength:  20.0,
		GripperArmWidth:   6.0,
		PairDistance:      27.2,
	}
}

// SchedulerSettings controls the placement-order scheduler.
type SchedulerSettings struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	// LegacyEscalation reproduces the historical scheduler, whose escalation
	// step never looks past direct blockers.
	LegacyEscalation bool `yaml:"legacy_escalation" json:"legacy_escalation"`
}

// DefaultSchedulerSettings returns the iteration cap of 50 with transitive escalation.
func DefaultSchedulerSettings() SchedulerSettings {
	return SchedulerSettings{MaxIterations: 50}
}

// AllocatorSettings holds the hexabundle allocation thresholds.
type AllocatorSettings struct {
	SurfaceBrightnessCutoff float64 `yaml:"surface_brightness_cutoff" json:"surface_brightness_cutoff"`
	LargeBundleMinRadius    float64 `yaml:"large_bundle_min_radius" json:"large_bundle_min_radius"` // arcsec
}

// DefaultAllocatorSettings returns the survey defaults.
func DefaultAllocatorSettings() AllocatorSettings {
	return AllocatorSettings{
		SurfaceBrightnessCutoff: 22.5,
		LargeBundleMinRadius:    8.0,
	}
}
