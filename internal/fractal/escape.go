package fractal

import "math"

// Interior is returned by Evaluate when the orbit is still bounded after the
// full iteration budget.
const Interior = -1.0

// EscapeRadiusSq is the squared magnitude past which an orbit diverges.
const EscapeRadiusSq = 4.0

// Evaluate iterates z = z² + c from z = 0 for c = re + im·i and returns a
// continuous escape estimate in [0, budget], or Interior.
func Evaluate(re, im float64, budget int) float64 {
	if budget < 1 {
		budget = 1
	}

	var zr, zi float64
	i := 0
	for ; i < budget; i++ {
		zr, zi = zr*zr-zi*zi+re, 2*zr*zi+im
		if zr*zr+zi*zi > EscapeRadiusSq {
			break
		}
	}
	if i == budget {
		return Interior
	}

	// |z| > 2 here, so log2(|z|) > 1 and the outer log is defined.
	mag := math.Sqrt(zr*zr + zi*zi)
	nu := math.Log2(math.Log2(mag))
	return clamp(float64(i)+1-nu, 0, float64(budget))
}

// Escaped reports whether a sample came from a diverging orbit.
func Escaped(sample float64) bool {
	return sample > Interior
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
