package server

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/posture"
	"gocv.io/x/gocv"
)

// bones pairs the landmarks joined by skeleton lines.
var bones = [][2]pose.Landmark{
	{pose.LeftEar, pose.LeftShoulder}, {pose.RightEar, pose.RightShoulder},
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow}, {pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow}, {pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip}, {pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee}, {pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee}, {pose.RightKnee, pose.RightAnkle},
}

var (
	boneColor    = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	jointColor   = color.RGBA{R: 0, G: 200, B: 0, A: 0}
	missingColor = color.RGBA{R: 230, G: 40, B: 40, A: 0}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// scoreColor grades the banner by recommendation tier.
func scoreColor(score int) color.RGBA {
	switch {
	case score >= posture.MaintenanceFrom:
		return color.RGBA{R: 0, G: 200, B: 0, A: 0}
	case score >= posture.ModerateFrom:
		return color.RGBA{R: 255, G: 170, B: 0, A: 0}
	default:
		return color.RGBA{R: 230, G: 40, B: 40, A: 0}
	}
}

func point(kp pose.Keypoint) image.Point {
	return image.Pt(int(kp.X), int(kp.Y))
}

// DrawOverlay renders the skeleton, the joints the engine could not trust, and a
// score banner with the first cue onto img.
func DrawOverlay(img *gocv.Mat, kps pose.Keypoints, a posture.Assessment) {
	found := make(map[pose.Landmark]pose.Keypoint, len(kps))
	for _, kp := range kps {
		if _, ok := found[kp.Name]; !ok {
			found[kp.Name] = kp
		}
	}
	missing := make(map[pose.Landmark]bool, len(a.Visibility.Missing))
	for _, name := range a.Visibility.Missing {
		missing[name] = true
	}

	for _, b := range bones {
		from, ok1 := found[b[0]]
		to, ok2 := found[b[1]]
		if !ok1 || !ok2 || missing[b[0]] || missing[b[1]] {
			continue
		}
		gocv.Line(img, point(from), point(to), boneColor, 2)
	}

	for name, kp := range found {
		c := jointColor
		if missing[name] {
			c = missingColor
		}
		gocv.Circle(img, point(kp), 4, c, -1)
	}

	banner := fmt.Sprintf("%s  %d", a.Exercise, a.Score)
	gocv.Rectangle(img, image.Rect(0, 0, img.Cols(), 64), color.RGBA{}, -1)
	gocv.PutText(img, banner, image.Pt(12, 26), gocv.FontHersheySimplex, 0.8, scoreColor(a.Score), 2)
	if len(a.Cues) > 0 {
		gocv.PutText(img, a.Cues[0], image.Pt(12, 54), gocv.FontHersheySimplex, 0.55, textColor, 1)
	}
}
