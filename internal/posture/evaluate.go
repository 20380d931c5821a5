package posture

import (
	"math"

	"github.com/ayusman/formcheck/internal/pose"
)

// Result is the outcome of scoring one frame.
type Result struct {
	Score int      `json:"score"`
	Cues  []string `json:"cues"`
}

// Measurements holds the metric values taken from one frame.
type Measurements map[Metric]float64

// apply runs every check in order. Each failure appends its cue and subtracts its penalty.
func apply(rules []Check, m Measurements) Result {
	score := 100
	cues := []string{}

	for _, c := range rules {
		if c.Violated(m[c.Metric]) {
			score -= c.Penalty
			cues = append(cues, c.Cue)
		}
	}

	return Result{Score: clamp(score), Cues: cues}
}

func clamp(score int) int {
	return max(0, min(100, score))
}

func hipTilt(kps pose.Keypoints) float64 {
	return math.Abs(kps.Find(pose.LeftHip).Y - kps.Find(pose.RightHip).Y)
}

func legAngle(kps pose.Keypoints, hip, knee, ankle pose.Landmark) float64 {
	return pose.Angle(kps.Find(hip), kps.Find(knee), kps.Find(ankle))
}

// meanKneeAngle averages the hip-knee-ankle angle of both legs.
func meanKneeAngle(kps pose.Keypoints) float64 {
	left := legAngle(kps, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	right := legAngle(kps, pose.RightHip, pose.RightKnee, pose.RightAnkle)
	return (left + right) / 2
}

// midlineTrunk is the shoulder-hip-knee angle on the body midline.
func midlineTrunk(kps pose.Keypoints) float64 {
	return pose.Angle(
		kps.Midpoint(pose.LeftShoulder, pose.RightShoulder),
		kps.Midpoint(pose.LeftHip, pose.RightHip),
		kps.Midpoint(pose.LeftKnee, pose.RightKnee),
	)
}

func measureHipHinge(kps pose.Keypoints) Measurements {
	return Measurements{
		TrunkAngle: midlineTrunk(kps),
		KneeAngle:  meanKneeAngle(kps),
		HipTilt:    hipTilt(kps),
	}
}

func measurePlank(kps pose.Keypoints) Measurements {
	return Measurements{
		TrunkAngle: midlineTrunk(kps),
		LegAngle: pose.Angle(
			kps.Midpoint(pose.LeftHip, pose.RightHip),
			kps.Midpoint(pose.LeftKnee, pose.RightKnee),
			kps.Midpoint(pose.LeftAnkle, pose.RightAnkle),
		),
		HipTilt: hipTilt(kps),
	}
}

// measureContralateral covers bird-dog and dead bug: left arm reach, right leg reach.
func measureContralateral(kps pose.Keypoints) Measurements {
	return Measurements{
		ArmAngle: pose.Angle(
			kps.Find(pose.LeftShoulder),
			kps.Find(pose.LeftElbow),
			kps.Find(pose.LeftWrist),
		),
		LegAngle:   legAngle(kps, pose.RightHip, pose.RightKnee, pose.RightAnkle),
		SpineAngle: midlineTrunk(kps),
		HipTilt:    hipTilt(kps),
	}
}

func measureWalking(kps pose.Keypoints) Measurements {
	stride := math.Abs(kps.Find(pose.LeftAnkle).X - kps.Find(pose.RightAnkle).X)
	return Measurements{
		SpineAngle: pose.Angle(
			kps.Midpoint(pose.LeftEar, pose.RightEar),
			kps.Midpoint(pose.LeftShoulder, pose.RightShoulder),
			kps.Midpoint(pose.LeftHip, pose.RightHip),
		),
		HipTilt:         hipTilt(kps),
		KneeAngle:       meanKneeAngle(kps),
		StrideDeviation: math.Abs(stride - IdealStridePx),
	}
}

// EvaluateHipHinge scores a hip hinge (Romanian deadlift pattern).
func EvaluateHipHinge(kps pose.Keypoints) Result {
	return apply(hipHingeRules, measureHipHinge(kps))
}

// EvaluatePlank scores a front plank seen from the side.
func EvaluatePlank(kps pose.Keypoints) Result {
	return apply(plankRules, measurePlank(kps))
}

// EvaluateBirdDog scores a bird-dog with the left arm and right leg extended.
func EvaluateBirdDog(kps pose.Keypoints) Result {
	return apply(birdDogRules, measureContralateral(kps))
}

// EvaluateDeadBug scores a dead bug with the left arm and right leg extended.
func EvaluateDeadBug(kps pose.Keypoints) Result {
	return apply(deadBugRules, measureContralateral(kps))
}

// EvaluateWalking scores standing/walking posture.
func EvaluateWalking(kps pose.Keypoints) Result {
	return apply(walkingRules, measureWalking(kps))
}
