package math

// BilinearWeights returns the blend weights of the four corners of a unit
// patch at (u, v), in winding order (0,0), (1,0), (1,1), (0,1).
func BilinearWeights(u, v float64) [4]float64 {
	return [4]float64{
		(1 - u) * (1 - v),
		u * (1 - v),
		u * v,
		(1 - u) * v,
	}
}

// Bilinear3 blends four corner values with BilinearWeights.
func Bilinear3(c [4]Vec3, u, v float64) Vec3 {
	w := BilinearWeights(u, v)
	return Vec3{
		c[0].X*w[0] + c[1].X*w[1] + c[2].X*w[2] + c[3].X*w[3],
		c[0].Y*w[0] + c[1].Y*w[1] + c[2].Y*w[2] + c[3].Y*w[3],
		c[0].Z*w[0] + c[1].Z*w[1] + c[2].Z*w[2] + c[3].Z*w[3],
	}
}

// Bilinear2 blends four corner values with BilinearWeights.
func Bilinear2(c [4]Vec2, u, v float64) Vec2 {
	w := BilinearWeights(u, v)
	return Vec2{
		c[0].X*w[0] + c[1].X*w[1] + c[2].X*w[2] + c[3].X*w[3],
		c[0].Y*w[0] + c[1].Y*w[1] + c[2].Y*w[2] + c[3].Y*w[3],
	}
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
