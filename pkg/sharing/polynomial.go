package sharing

// Polynomial is represented as its coefficient vector, constant term first:
// p(x) = coeffs[0] + coeffs[1]*x + coeffs[2]*x^2 + ...
type Polynomial struct {
	coeffs []GF256
}

// NewPolynomial builds a polynomial from its coefficients, constant term
// first.
func NewPolynomial(coeffs []GF256) Polynomial {
	return Polynomial{coeffs: coeffs}
}

// Degree returns the polynomial's degree.
func (p Polynomial) Degree() int {
	if len(p.coeffs) == 0 {
		return 0
	}
	return len(p.coeffs) - 1
}

// Evaluate computes p(x) using Horner's method.
func (p Polynomial) Evaluate(x GF256) GF256 {
	sum := Zero()
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		sum = sum.Mul(x).Add(p.coeffs[i])
	}
	return sum
}

// point is an (x, y) pair on a polynomial.
type point struct {
	x, y GF256
}

// Interpolate builds the unique minimal-degree polynomial passing through
// every given point, via Lagrange interpolation. Duplicate x-coordinates
// are not detected: GF256.Inv(0) is 0, so the terms of points sharing an
// x-coordinate vanish and the result does not pass through them (distinct
// share indices never collide by construction).
func Interpolate(points []point) Polynomial {
	result := NewPolynomial([]GF256{Zero()})
	for j, pj := range points {
		term := NewPolynomial([]GF256{One()})
		for i, pi := range points {
			if i == j {
				continue
			}
			denom := pj.x.Add(pi.x) // subtraction is XOR in GF(2^8)
			// (x - x_i) / (x_j - x_i), as a monic linear factor scaled by 1/denom.
			factor := NewPolynomial([]GF256{pi.x, One()}).scale(denom.Inv())
			term = term.mul(factor)
		}
		result = result.add(term.scale(pj.y))
	}
	return result
}

func (p Polynomial) add(other Polynomial) Polynomial {
	n := len(p.coeffs)
	if len(other.coeffs) > n {
		n = len(other.coeffs)
	}
	out := make([]GF256, n)
	for i := 0; i < n; i++ {
		var a, b GF256
		if i < len(p.coeffs) {
			a = p.coeffs[i]
		}
		if i < len(other.coeffs) {
			b = other.coeffs[i]
		}
		out[i] = a.Add(b)
	}
	return NewPolynomial(stripTrailingZeros(out))
}

func (p Polynomial) scale(s GF256) Polynomial {
	out := make([]GF256, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = c.Mul(s)
	}
	return NewPolynomial(stripTrailingZeros(out))
}

func (p Polynomial) mul(other Polynomial) Polynomial {
	if len(p.coeffs) == 0 || len(other.coeffs) == 0 {
		return NewPolynomial(nil)
	}
	out := make([]GF256, len(p.coeffs)+len(other.coeffs)-1)
	for i, a := range p.coeffs {
		for j, b := range other.coeffs {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return NewPolynomial(stripTrailingZeros(out))
}

func stripTrailingZeros(c []GF256) []GF256 {
	n := len(c)
	for n > 0 && c[n-1] == Zero() {
		n--
	}
	return c[:n]
}
