package layout_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/ShawCole/radius-zip/cluster"
	"github.com/ShawCole/radius-zip/geo"
	"github.com/ShawCole/radius-zip/layout"
	"github.com/ShawCole/radius-zip/zipmodel"
)

func seed(zip string, lon, lat float64) zipmodel.Seed {
	return zipmodel.Seed{Zip: zip, Point: orb.Point{lon, lat}}
}

var (
	nyc      = seed("10001", -73.9967, 40.7484)
	brooklyn = seed("11201", -73.9906, 40.6945)
	queens   = seed("11101", -73.9390, 40.7447)
	la       = seed("90012", -118.2437, 34.0614)
	santaMon = seed("90401", -118.4912, 34.0138)
	chicago  = seed("60601", -87.6231, 41.8858)
)

func checkVariant(t *testing.T, p layout.Plan) {
	t.Helper()

	variants := 0
	if p.Single != nil {
		variants++
		if p.Kind != layout.KindSingle {
			t.Fatalf("single variant with kind %q", p.Kind)
		}
	}
	if p.Split != nil {
		variants++
		if p.Kind != layout.KindSplit {
			t.Fatalf("split variant with kind %q", p.Kind)
		}
	}
	if p.Grid != nil {
		variants++
		if p.Kind != layout.KindGrid {
			t.Fatalf("grid variant with kind %q", p.Kind)
		}
	}
	if variants != 1 {
		t.Fatalf("expected exactly one variant, got %d", variants)
	}
}

func TestDecideEmpty(t *testing.T) {
	_, err := layout.Decide(nil, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if !errors.Is(err, layout.ErrEmptySeeds) {
		t.Fatalf("expected ErrEmptySeeds, got %v", err)
	}
}

func TestDecideOneSeed(t *testing.T) {
	for _, mode := range []layout.Mode{layout.ModeAuto, layout.ModeSingle, layout.ModeSplit} {
		plan, err := layout.Decide([]zipmodel.Seed{nyc}, mode, cluster.DefaultThresholdMiles)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		checkVariant(t, plan)
		if plan.Kind != layout.KindSingle {
			t.Fatalf("mode %v: expected single, got %q", mode, plan.Kind)
		}
		if plan.Single.MaxInternalDistanceMiles != 0 {
			t.Fatalf("expected internal distance 0, got %v", plan.Single.MaxInternalDistanceMiles)
		}
	}
}

func TestDecideTwoNearbyAuto(t *testing.T) {
	plan, err := layout.Decide([]zipmodel.Seed{nyc, brooklyn}, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkVariant(t, plan)
	if plan.Kind != layout.KindSingle {
		t.Fatalf("expected single for nearby pair, got %q", plan.Kind)
	}
	want := geo.Distance(nyc.Point, brooklyn.Point)
	if plan.Single.MaxInternalDistanceMiles != want {
		t.Fatalf("expected internal distance %v, got %v", want, plan.Single.MaxInternalDistanceMiles)
	}
}

func TestDecideTwoDistantAuto(t *testing.T) {
	plan, err := layout.Decide([]zipmodel.Seed{nyc, la}, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkVariant(t, plan)
	if plan.Kind != layout.KindSplit {
		t.Fatalf("expected split for distant pair, got %q", plan.Kind)
	}
	if plan.Split.SplitFraction != 0.5 {
		t.Fatalf("expected split fraction 0.5, got %v", plan.Split.SplitFraction)
	}
	if plan.Split.Clusters[0].Seeds[0].Zip != "10001" || plan.Split.Clusters[1].Seeds[0].Zip != "90012" {
		t.Fatalf("expected seed order preserved, got %v", plan.Split.Clusters)
	}

	wantAngle := geo.Bearing(nyc.Point, la.Point) + 90
	for wantAngle >= 360 {
		wantAngle -= 360
	}
	if plan.Split.AngleDegrees != wantAngle {
		t.Fatalf("expected angle %v, got %v", wantAngle, plan.Split.AngleDegrees)
	}
}

func TestDecideTwoForcedModes(t *testing.T) {
	plan, err := layout.Decide([]zipmodel.Seed{nyc, la}, layout.ModeSingle, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Kind != layout.KindSingle {
		t.Fatalf("expected forced single, got %q", plan.Kind)
	}
	if plan.Single.MaxInternalDistanceMiles == 0 {
		t.Fatalf("expected nonzero internal distance for a distant pair")
	}

	plan, err = layout.Decide([]zipmodel.Seed{nyc, brooklyn}, layout.ModeSplit, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Kind != layout.KindSplit {
		t.Fatalf("expected forced split, got %q", plan.Kind)
	}
}

func TestDecideAutoOneCluster(t *testing.T) {
	seeds := []zipmodel.Seed{nyc, brooklyn, queens}
	plan, err := layout.Decide(seeds, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkVariant(t, plan)
	if plan.Kind != layout.KindSingle {
		t.Fatalf("expected single for one cluster, got %q", plan.Kind)
	}
	if plan.Single.MaxInternalDistanceMiles <= 0 {
		t.Fatalf("expected positive internal distance, got %v", plan.Single.MaxInternalDistanceMiles)
	}
}

func TestDecideAutoTwoClusters(t *testing.T) {
	seeds := []zipmodel.Seed{nyc, brooklyn, la}
	plan, err := layout.Decide(seeds, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkVariant(t, plan)
	if plan.Kind != layout.KindSplit {
		t.Fatalf("expected split for two clusters, got %q", plan.Kind)
	}
	if len(plan.Split.Clusters[0].Seeds) != 2 || len(plan.Split.Clusters[1].Seeds) != 1 {
		t.Fatalf("expected {2,1} cluster sizes, got %v", plan.Split.Clusters)
	}
	if plan.Split.AngleDegrees != 0 {
		t.Fatalf("expected angle 0 for multi-seed clusters, got %v", plan.Split.AngleDegrees)
	}
}

func TestDecideAutoThreeClusters(t *testing.T) {
	seeds := []zipmodel.Seed{nyc, la, chicago}
	plan, err := layout.Decide(seeds, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkVariant(t, plan)
	if plan.Kind != layout.KindGrid {
		t.Fatalf("expected grid for three clusters, got %q", plan.Kind)
	}
	if len(plan.Grid.Seeds) != 3 {
		t.Fatalf("expected 3 grid seeds, got %d", len(plan.Grid.Seeds))
	}
}

func TestDecideManySeedsForcedModes(t *testing.T) {
	seeds := []zipmodel.Seed{nyc, la, chicago, santaMon}

	plan, err := layout.Decide(seeds, layout.ModeSplit, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Kind != layout.KindGrid {
		t.Fatalf("expected split with 3+ seeds to fall to grid, got %q", plan.Kind)
	}

	plan, err = layout.Decide(seeds, layout.ModeSingle, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Kind != layout.KindSingle {
		t.Fatalf("expected forced single, got %q", plan.Kind)
	}
	if plan.Single.MaxInternalDistanceMiles != 0 {
		t.Fatalf("expected internal distance reported as 0, got %v", plan.Single.MaxInternalDistanceMiles)
	}
}

func TestDecideDeterministic(t *testing.T) {
	seeds := []zipmodel.Seed{nyc, brooklyn, la, chicago}
	first, err := layout.Decide(seeds, layout.ModeAuto, cluster.DefaultThresholdMiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := layout.Decide(seeds, layout.ModeAuto, cluster.DefaultThresholdMiles)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical plans, got %v and %v", first, again)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		mode layout.Mode
		ok   bool
	}{
		{"", layout.ModeAuto, true},
		{"auto", layout.ModeAuto, true},
		{"single", layout.ModeSingle, true},
		{"split", layout.ModeSplit, true},
		{"grid", 0, false},
		{"SINGLE", 0, false},
	}

	for _, tt := range tests {
		mode, err := layout.ParseMode(tt.in)
		if tt.ok && err != nil {
			t.Fatalf("ParseMode(%q): unexpected error %v", tt.in, err)
		}
		if !tt.ok && err == nil {
			t.Fatalf("ParseMode(%q): expected error", tt.in)
		}
		if tt.ok && mode != tt.mode {
			t.Fatalf("ParseMode(%q): expected %v, got %v", tt.in, tt.mode, mode)
		}
	}
}
