// Package layout decides how to lay out map viewports for a set of seeds:
// one combined map, a two-way split, or a grid with one cell per seed. The
// decision is pure data; rendering belongs to the caller.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/ShawCole/radius-zip/cluster"
	"github.com/ShawCole/radius-zip/geo"
	"github.com/ShawCole/radius-zip/zipmodel"
)

// ErrEmptySeeds is returned by Decide when called without seeds. Callers
// are expected to filter unresolved codes out before deciding a layout.
var ErrEmptySeeds = errors.New("layout: no seeds to lay out")

// Mode is the user-selectable layout preference.
type Mode int

const (
	ModeAuto Mode = iota
	ModeSingle
	ModeSplit
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeSingle:
		return "single"
	case ModeSplit:
		return "split"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the wire names used by the HTTP API. The empty string
// means auto.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "single":
		return ModeSingle, nil
	case "split":
		return ModeSplit, nil
	}
	return ModeAuto, fmt.Errorf("layout: unknown mode %q", s)
}

// Kind tags which variant of Plan was produced.
type Kind string

const (
	KindSingle Kind = "single"
	KindSplit  Kind = "split"
	KindGrid   Kind = "grid"
)

// SingleMap renders every seed on one combined map.
// MaxInternalDistanceMiles is the largest seed-pair distance the map has
// to contain; it is reported as 0 when mode Single is forced with three
// or more seeds (documented simplification).
type SingleMap struct {
	MaxInternalDistanceMiles float64 `json:"max_internal_distance_miles"`
}

// SplitTwoWay renders two viewports separated by a straight split line.
// AngleDegrees is the raw split-line angle, perpendicular to the bearing
// between the two seeds; how to rotate it onto the screen is the
// renderer's concern. For multi-seed clusters no single line is
// meaningful and the angle is reported as 0.
type SplitTwoWay struct {
	AngleDegrees  float64            `json:"angle_degrees"`
	SplitFraction float64            `json:"split_fraction"`
	Clusters      [2]cluster.Cluster `json:"clusters"`
}

// Grid renders one cell per seed.
type Grid struct {
	Seeds []zipmodel.Seed `json:"seeds"`
}

// Plan is the layout decision. Exactly one of the variant pointers is
// non-nil, matching Kind.
type Plan struct {
	Kind   Kind         `json:"kind"`
	Single *SingleMap   `json:"single,omitempty"`
	Split  *SplitTwoWay `json:"split,omitempty"`
	Grid   *Grid        `json:"grid,omitempty"`
}

// Decide picks a viewport plan for the seeds. Deterministic and free of
// side effects: identical inputs always produce a structurally identical
// plan.
//
// Precedence: one seed is always a single map. Two seeds follow the mode,
// with auto splitting when they are thresholdMiles or farther apart.
// Three or more seeds under auto are clustered at thresholdMiles: one
// cluster combines, exactly two splits, anything else falls to a grid.
// Mode split with three or more seeds also falls to a grid; a two-way
// split has no natural generalization past two sides.
func Decide(seeds []zipmodel.Seed, mode Mode, thresholdMiles float64) (Plan, error) {
	switch {
	case len(seeds) == 0:
		return Plan{}, ErrEmptySeeds

	case len(seeds) == 1:
		return singlePlan(0), nil

	case len(seeds) == 2:
		dist := geo.Distance(seeds[0].Point, seeds[1].Point)
		switch mode {
		case ModeSingle:
			return singlePlan(dist), nil
		case ModeSplit:
			return pairSplitPlan(seeds[0], seeds[1]), nil
		default: // ModeAuto
			if dist < thresholdMiles {
				return singlePlan(dist), nil
			}
			return pairSplitPlan(seeds[0], seeds[1]), nil
		}

	default: // 3+ seeds
		switch mode {
		case ModeSingle:
			return singlePlan(0), nil
		case ModeSplit:
			return gridPlan(seeds), nil
		}

		clusters := cluster.Group(seeds, thresholdMiles)
		switch len(clusters) {
		case 1:
			return singlePlan(clusters[0].MaxInternalDistance()), nil
		case 2:
			return Plan{
				Kind: KindSplit,
				Split: &SplitTwoWay{
					AngleDegrees:  0,
					SplitFraction: 0.5,
					Clusters:      [2]cluster.Cluster{clusters[0], clusters[1]},
				},
			}, nil
		default:
			return gridPlan(seeds), nil
		}
	}
}

func singlePlan(maxInternal float64) Plan {
	return Plan{Kind: KindSingle, Single: &SingleMap{MaxInternalDistanceMiles: maxInternal}}
}

func gridPlan(seeds []zipmodel.Seed) Plan {
	return Plan{Kind: KindGrid, Grid: &Grid{Seeds: seeds}}
}

func pairSplitPlan(a, b zipmodel.Seed) Plan {
	angle := math.Mod(geo.Bearing(a.Point, b.Point)+90, 360)
	return Plan{
		Kind: KindSplit,
		Split: &SplitTwoWay{
			AngleDegrees:  angle,
			SplitFraction: 0.5,
			Clusters: [2]cluster.Cluster{
				{Seeds: []zipmodel.Seed{a}},
				{Seeds: []zipmodel.Seed{b}},
			},
		},
	}
}
