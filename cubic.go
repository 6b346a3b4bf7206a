package ldclump

import "math"

// Tolerances of the phase solver.
const (
	Epsilon         = 0.000244140625
	SmallishEpsilon = 0.00000000003637978807091713
	SmallEpsilon    = 0.00000000000005684341886080801486968994140625
)

// cubicRealRoots finds the real roots of x^3 + a*x^2 + b*x + c. Roots are
// written to solutions in ascending order; roots within Epsilon of each other
// are reported once. It returns the number of distinct roots.
func cubicRealRoots(a, b, c float64, solutions *[3]float64) int {
	a2 := a * a
	qq := (a2 - 3*b) * (1.0 / 9.0)
	rr := (2*a2*a - 9*a*b + 27*c) * (1.0 / 54.0)
	r2 := rr * rr
	q3 := qq * qq * qq
	adiv3 := a * (1.0 / 3.0)

	if r2 < q3 {
		// Three real roots
		sq := math.Sqrt(qq)
		theta := math.Acos(rr/(qq*sq)) * (1.0 / 3.0)
		sq *= -2
		solutions[0] = sq*math.Cos(theta) - adiv3
		solutions[1] = sq*math.Cos(theta+(2.0*math.Pi/3.0)) - adiv3
		solutions[2] = sq*math.Cos(theta-(2.0*math.Pi/3.0)) - adiv3

		sort3(solutions)

		if solutions[1]-solutions[0] < Epsilon {
			solutions[1] = solutions[2]
			if solutions[1]-solutions[0] < Epsilon {
				return 1
			}
			return 2
		}
		if solutions[2]-solutions[1] < Epsilon {
			return 2
		}
		return 3
	}

	dxx := -math.Pow(math.Abs(rr)+math.Sqrt(r2-q3), 1.0/3.0)
	if dxx == 0.0 {
		solutions[0] = -adiv3
		return 1
	}
	if rr < 0.0 {
		dxx = -dxx
	}
	sq := qq / dxx
	solutions[0] = dxx + sq - adiv3

	// A plain Epsilon here misses genuine double roots
	if math.Abs(dxx-sq) >= Epsilon*8 {
		return 1
	}
	if dxx >= 0.0 {
		solutions[1] = solutions[0]
		solutions[0] = -dxx - adiv3
	} else {
		solutions[1] = -dxx - adiv3
	}
	return 2
}

func sort3(s *[3]float64) {
	if s[0] > s[1] {
		s[0], s[1] = s[1], s[0]
	}
	if s[1] > s[2] {
		s[1], s[2] = s[2], s[1]
	}
	if s[0] > s[1] {
		s[0], s[1] = s[1], s[0]
	}
}
