// Package posture scores exercise form from a single frame of body keypoints.
//
// Each exercise owns an ordered rule table. Evaluators measure a few joint angles and
// distances, run every check in the table, and subtract the penalty of each failed
// check from 100. The same tables drive the optimal-range markers shown to users, so
// scoring thresholds and display ranges cannot drift apart.
package posture

import (
	"fmt"
	"math"
)

// Metric names one measurement taken from a frame.
type Metric string

const (
	TrunkAngle      Metric = "trunk_angle"
	KneeAngle       Metric = "knee_angle"
	LegAngle        Metric = "leg_angle"
	ArmAngle        Metric = "arm_angle"
	SpineAngle      Metric = "spine_angle"
	HipTilt         Metric = "hip_tilt"
	StrideDeviation Metric = "stride_deviation"
)

type metricInfo struct {
	label string
	unit  string
	color string
}

var metrics = map[Metric]metricInfo{
	TrunkAngle:      {"Trunk angle", "deg", "#4caf50"},
	KneeAngle:       {"Knee angle", "deg", "#2196f3"},
	LegAngle:        {"Leg angle", "deg", "#03a9f4"},
	ArmAngle:        {"Arm angle", "deg", "#ff9800"},
	SpineAngle:      {"Spine angle", "deg", "#9c27b0"},
	HipTilt:         {"Hip tilt", "px", "#f44336"},
	StrideDeviation: {"Stride deviation", "px", "#795548"},
}

// Check is one threshold rule. It fails when the measured value is below Min or above Max.
// One-sided checks leave the other bound infinite.
type Check struct {
	Metric  Metric
	Min     float64
	Max     float64
	Cue     string
	Penalty int
}

// Violated reports whether v falls outside the check's band. A NaN measurement,
// from non-finite coordinates, always violates.
func (c Check) Violated(v float64) bool {
	return math.IsNaN(v) || v < c.Min || v > c.Max
}

func atLeast(m Metric, limit float64, cue string, penalty int) Check {
	return Check{Metric: m, Min: limit, Max: math.Inf(1), Cue: cue, Penalty: penalty}
}

func atMost(m Metric, limit float64, cue string, penalty int) Check {
	return Check{Metric: m, Min: math.Inf(-1), Max: limit, Cue: cue, Penalty: penalty}
}

func within(m Metric, lo, hi float64, cue string, penalty int) Check {
	return Check{Metric: m, Min: lo, Max: hi, Cue: cue, Penalty: penalty}
}

// IdealStridePx is the ankle x-distance a walking stride is compared against.
const IdealStridePx = 120.0

var hipHingeRules = []Check{
	atLeast(KneeAngle, 155, "Less knee bend — micro-bend only.", 15),
	atMost(TrunkAngle, 165, "Hinge more at the hips.", 15),
	atLeast(TrunkAngle, 95, "Don't overfold. Keep your chest proud.", 10),
	atMost(HipTilt, 20, "Level your hips.", 10),
}

// The 185° plank ceiling sits above what Angle can return, so the pike check never fires.
var plankRules = []Check{
	atLeast(TrunkAngle, 165, "Lift your chest and hips into one line.", 15),
	atMost(TrunkAngle, 185, "Don't pike your hips up.", 15),
	atLeast(LegAngle, 165, "Straighten your legs.", 10),
	atMost(HipTilt, 15, "Level your hips.", 10),
}

var birdDogRules = []Check{
	within(ArmAngle, 160, 180, "Reach your arm straight out.", 15),
	within(LegAngle, 170, 190, "Extend your back leg fully.", 15),
	within(SpineAngle, 160, 200, "Keep your spine neutral.", 20),
	atMost(HipTilt, 20, "Keep your hips square to the floor.", 10),
}

var deadBugRules = []Check{
	within(ArmAngle, 160, 190, "Keep your reaching arm long.", 15),
	within(LegAngle, 160, 190, "Extend your leg long and low.", 15),
	within(SpineAngle, 150, 210, "Press your lower back into the floor.", 20),
	atMost(HipTilt, 15, "Keep your hips level.", 10),
}

var walkingRules = []Check{
	within(SpineAngle, 170, 190, "Stand tall. Stack your head over your shoulders.", 20),
	atMost(HipTilt, 30, "Keep your hips level as you walk.", 15),
	within(KneeAngle, 160, 200, "Keep your knees tracking straight.", 15),
	atMost(StrideDeviation, 50, "Adjust your stride length.", 10),
}

func init() {
	for name, rules := range map[string][]Check{
		"hip hinge":       hipHingeRules,
		"plank":           plankRules,
		"bird-dog":        birdDogRules,
		"dead bug":        deadBugRules,
		"walking posture": walkingRules,
	} {
		mustValidate(name, rules)
	}
}

// mustValidate panics on a malformed rule table.
func mustValidate(name string, rules []Check) {
	if len(rules) == 0 {
		panic(fmt.Sprintf("posture: %s has no rules", name))
	}
	for i, c := range rules {
		if _, ok := metrics[c.Metric]; !ok {
			panic(fmt.Sprintf("posture: %s rule %d uses unknown metric %q", name, i, c.Metric))
		}
		if c.Min > c.Max || math.IsNaN(c.Min) || math.IsNaN(c.Max) {
			panic(fmt.Sprintf("posture: %s rule %d has an empty band [%v,%v]", name, i, c.Min, c.Max))
		}
		if c.Cue == "" || c.Penalty <= 0 {
			panic(fmt.Sprintf("posture: %s rule %d needs a cue and a positive penalty", name, i))
		}
	}
}

// Marker is an optimal-range annotation for one metric, derived from a rule table.
type Marker struct {
	Metric Metric  `json:"metric"`
	Label  string  `json:"label"`
	Unit   string  `json:"unit"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Color  string  `json:"color"`
}

// markers intersects the passing bands of every check per metric, in first-use order.
// Open lower bounds become 0 and open upper angle bounds become 180.
func markers(rules []Check) []Marker {
	var out []Marker
	index := make(map[Metric]int)

	for _, c := range rules {
		i, ok := index[c.Metric]
		if !ok {
			info := metrics[c.Metric]
			index[c.Metric] = len(out)
			out = append(out, Marker{
				Metric: c.Metric,
				Label:  info.label,
				Unit:   info.unit,
				Low:    c.Min,
				High:   c.Max,
				Color:  info.color,
			})
			continue
		}
		out[i].Low = math.Max(out[i].Low, c.Min)
		out[i].High = math.Min(out[i].High, c.Max)
	}

	for i := range out {
		if math.IsInf(out[i].Low, -1) {
			out[i].Low = 0
		}
		if math.IsInf(out[i].High, 1) {
			out[i].High = 180
		}
	}
	return out
}
