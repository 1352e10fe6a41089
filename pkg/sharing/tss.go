package sharing

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// Share is one party's slice of a split secret: a 1-based positional index
// and the share bytes, same length as the original secret.
type Share struct {
	Index byte
	Data  []byte
}

// Split divides secret into n shares such that any t of them reconstruct
// it (and fewer reveal nothing information-theoretically). t == 1 is a
// degenerate case: every share is simply a tagged copy of the secret.
func Split(secret []byte, n, t int) ([]Share, error) {
	if n < 1 || n > 255 {
		return nil, errors.Errorf("sharing: n must be in [1,255], got %d", n)
	}
	if t < 1 || t > n {
		return nil, errors.Errorf("sharing: threshold must be in [1,%d], got %d", n, t)
	}

	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		shares[i] = Share{Index: byte(i + 1), Data: make([]byte, len(secret))}
	}

	if t == 1 {
		for i := range shares {
			copy(shares[i].Data, secret)
		}
		return shares, nil
	}

	coeffs := make([]byte, t-1)
	for byteIdx, secretByte := range secret {
		if _, err := rand.Read(coeffs); err != nil {
			return nil, errors.Wrap(err, "sharing: drawing random coefficients")
		}
		poly := make([]GF256, t)
		poly[0] = GF256(secretByte)
		for i, c := range coeffs {
			poly[i+1] = GF256(c)
		}
		p := NewPolynomial(poly)
		for i := range shares {
			shares[i].Data[byteIdx] = byte(p.Evaluate(GF256(shares[i].Index)))
		}
	}
	return shares, nil
}

// Combine reconstructs the secret from any t (or more, extras ignored by
// the caller's responsibility to pass exactly t) shares via Lagrange
// interpolation at x=0, applied independently per byte. A single share is
// returned verbatim, matching the t=1 degenerate case.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.New("sharing: no shares to combine")
	}
	if len(shares) == 1 {
		out := make([]byte, len(shares[0].Data))
		copy(out, shares[0].Data)
		return out, nil
	}
	secretLen := len(shares[0].Data)
	for _, s := range shares[1:] {
		if len(s.Data) != secretLen {
			return nil, errors.New("sharing: share length mismatch")
		}
	}
	out := make([]byte, secretLen)
	pts := make([]point, len(shares))
	for byteIdx := 0; byteIdx < secretLen; byteIdx++ {
		for i, s := range shares {
			pts[i] = point{x: GF256(s.Index), y: GF256(s.Data[byteIdx])}
		}
		out[byteIdx] = byte(combineByte(pts))
	}
	return out, nil
}

// combineByte is the explicit Lagrange-at-0 product/quotient formula:
// l_i(0) = product_{j != i} x_j / (x_i - x_j), result = sum_i y_i * l_i(0).
// Subtraction is XOR in GF(2^8), so 0 - x_j == x_j.
func combineByte(pts []point) GF256 {
	result := Zero()
	for i, pi := range pts {
		basis := One()
		for j, pj := range pts {
			if i == j {
				continue
			}
			num := pj.x
			den := pi.x.Add(pj.x)
			basis = basis.Mul(num.Mul(den.Inv()))
		}
		result = result.Add(pi.y.Mul(basis))
	}
	return result
}

// ReconstructPolynomials builds, for every byte position of the shares'
// data, the minimal-degree polynomial passing through that byte across all
// given shares - one Polynomial per byte position, each evaluable at any
// x. This is strictly more than Combine computes (a single value at x=0):
// it is the primitive VerifyConsistency needs to check shares that were
// never part of the interpolating set.
func ReconstructPolynomials(shares []Share) ([]Polynomial, error) {
	if len(shares) == 0 {
		return nil, errors.New("sharing: no shares to interpolate")
	}
	secretLen := len(shares[0].Data)
	for _, s := range shares[1:] {
		if len(s.Data) != secretLen {
			return nil, errors.New("sharing: share length mismatch")
		}
	}
	polys := make([]Polynomial, secretLen)
	pts := make([]point, len(shares))
	for byteIdx := 0; byteIdx < secretLen; byteIdx++ {
		for i, s := range shares {
			pts[i] = point{x: GF256(s.Index), y: GF256(s.Data[byteIdx])}
		}
		polys[byteIdx] = Interpolate(pts)
	}
	return polys, nil
}

// VerifyConsistency checks that every share in all (which may include
// shares outside the set used to build polys) lies on the reconstructed
// polynomials. It detects a key server that released a share inconsistent
// with the rest of the threshold split - something a bare t-of-n combine
// cannot see, since combine only ever looks at the t shares it is given.
func VerifyConsistency(polys []Polynomial, all []Share) bool {
	for _, s := range all {
		if len(s.Data) != len(polys) {
			return false
		}
		x := GF256(s.Index)
		for byteIdx, b := range s.Data {
			if polys[byteIdx].Evaluate(x) != GF256(b) {
				return false
			}
		}
	}
	return true
}
