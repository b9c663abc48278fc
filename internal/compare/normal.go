package compare

import "math"

// normalCDF is the standard normal cumulative distribution function,
// Φ(x) = 0.5 * erfc(-x / √2). Exact to machine precision via math.Erfc,
// strictly monotonic, bounded in [0, 1].
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
