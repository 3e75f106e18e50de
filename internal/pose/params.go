// Package pose holds the bounded rotation parameters that drive a hand skeleton.
package pose

import (
	"fmt"
	"strings"
)

// Def declares one rotation parameter: a joint axis and its inclusive bounds in degrees.
type Def struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// Joint returns the joint part of the parameter name.
func (d Def) Joint() string {
	joint, _ := SplitName(d.Name)
	return joint
}

// Axis returns the axis part of the parameter name ("x", "y" or "z").
func (d Def) Axis() string {
	_, axis := SplitName(d.Name)
	return axis
}

// SplitName splits "<joint>.<axis>" at the last dot.
// A name without a dot yields an empty axis.
func SplitName(name string) (joint, axis string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// RightHand returns the parameter table for the right hand rig.
// The thumb has five degrees of freedom, the other four fingers four each.
func RightHand() []Def {
	defs := []Def{
		{Name: "Finger-1-1_R.x", Min: -40, Max: 40},
		{Name: "Finger-1-1_R.y", Min: -28, Max: 16},
		{Name: "Finger-1-1_R.z", Min: -2, Max: 10},
		{Name: "Finger-1-2_R.y", Min: -8, Max: 10},
		{Name: "Finger-1-3_R.y", Min: -20, Max: 20},
	}
	for i := 2; i <= 5; i++ {
		defs = append(defs,
			Def{Name: fmt.Sprintf("Finger-%d-1_R.y", i), Min: -15, Max: 10},
			Def{Name: fmt.Sprintf("Finger-%d-1_R.z", i), Min: -60, Max: 30},
			Def{Name: fmt.Sprintf("Finger-%d-2_R.z", i), Min: -90, Max: 5},
			Def{Name: fmt.Sprintf("Finger-%d-3_R.z", i), Min: -90, Max: 5},
		)
	}
	return defs
}

// Validate checks that names are unique, well formed and that bounds are ordered.
func Validate(defs []Def) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		joint, axis := SplitName(d.Name)
		if joint == "" {
			return fmt.Errorf("parameter %q: missing joint name", d.Name)
		}
		switch axis {
		case "x", "y", "z":
		default:
			return fmt.Errorf("parameter %q: axis must be x, y or z", d.Name)
		}
		if d.Min > d.Max {
			return fmt.Errorf("parameter %q: min %g > max %g", d.Name, d.Min, d.Max)
		}
		if seen[d.Name] {
			return fmt.Errorf("parameter %q: declared twice", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
