package common

// TileSize is the default world size of one grid cell.
const TileSize = 32.0

// Vec3 is a world-space point.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// LerpVec3 interpolates between a and b. t is clamped to [0, 1].
func LerpVec3(a, b Vec3, t float64) Vec3 {
	t = Clamp01(t)
	return Vec3{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		Z: Lerp(a.Z, b.Z, t),
	}
}

func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
