package pose

import "math"

// angleEpsilon keeps the cosine finite when a ray has zero length.
const angleEpsilon = 1e-6

// Angle returns the angle in degrees at vertex b formed by the rays b→a and b→c.
// The result is unsigned and lies in [0,180]. Coincident points never produce NaN;
// non-finite coordinates do.
func Angle(a, b, c Keypoint) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	dot := bax*bcx + bay*bcy
	mag := math.Hypot(bax, bay) * math.Hypot(bcx, bcy)

	cos := dot / (mag + angleEpsilon)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

