// Package curve wraps the pairing-friendly curve this module builds every
// other cryptographic primitive on: scalars, the two source groups G1/G2,
// the target group GT, and the bilinear pairing between them. Every package
// in this module that needs curve arithmetic (kdf, ibe, envelope,
// sealclient) is written against this interface, never against
// go.dedis.ch/kyber/v3 directly.
//
// The underlying suite is go.dedis.ch/kyber/v3's BN256 pairing suite, the
// same one the rest of this corpus's threshold-crypto code (smvba, tbls)
// is built on. See SPEC_FULL.md §3.1 for why this replaces the original
// system's BLS12-381 substrate and what that costs in byte-length
// portability.
package curve

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
)

var suite = pairing.NewSuiteBn256()

// Scalar is an element of the field the curve's scalars live in.
type Scalar struct{ s kyber.Scalar }

// G1 is a point on the first source group.
type G1 struct{ p kyber.Point }

// G2 is a point on the second source group.
type G2 struct{ p kyber.Point }

// GT is an element of the pairing target group.
type GT struct{ p kyber.Point }

// ScalarLen is the canonical byte length of a marshalled Scalar.
func ScalarLen() int { return suite.G1().ScalarLen() }

// G1Len is the canonical byte length of a marshalled G1 point.
func G1Len() int { return suite.G1().PointLen() }

// G2Len is the canonical byte length of a marshalled G2 point.
func G2Len() int { return suite.G2().PointLen() }

// GTLen is the canonical byte length of a marshalled GT element.
func GTLen() int { return suite.GT().PointLen() }

// RandomScalar draws a uniformly random scalar from the suite's RNG.
func RandomScalar() Scalar {
	return Scalar{s: suite.G1().Scalar().Pick(suite.RandomStream())}
}

// ScalarFromBytes parses a canonical, fixed-length scalar encoding.
// Returns ErrInvalidPoint on non-canonical input.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarLen() {
		return Scalar{}, ErrInvalidPoint
	}
	s := suite.G1().Scalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return Scalar{}, ErrInvalidPoint
	}
	if !canonicalScalar(s, b) {
		return Scalar{}, ErrInvalidPoint
	}
	return Scalar{s: s}, nil
}

// ToBytes returns the canonical fixed-length encoding of the scalar.
func (s Scalar) ToBytes() []byte {
	b, err := s.s.MarshalBinary()
	if err != nil {
		panic("curve: marshalling a valid scalar never fails: " + err.Error())
	}
	return b
}

// Add returns s + other.
func (s Scalar) Add(other Scalar) Scalar {
	return Scalar{s: suite.G1().Scalar().Add(s.s, other.s)}
}

// canonicalScalar rejects inputs that unmarshal successfully but do not
// round-trip to the same bytes, i.e. non-canonical field-element encodings.
func canonicalScalar(s kyber.Scalar, orig []byte) bool {
	out, err := s.MarshalBinary()
	if err != nil {
		return false
	}
	return bytesEqual(out, orig)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// G1Generator returns the fixed generator of G1.
func G1Generator() G1 { return G1{p: suite.G1().Point().Base()} }

// G2Generator returns the fixed generator of G2.
func G2Generator() G2 { return G2{p: suite.G2().Point().Base()} }

// G1FromBytes parses a canonical, fixed-length G1 point encoding.
func G1FromBytes(b []byte) (G1, error) {
	p, err := pointFromBytes(suite.G1(), b)
	if err != nil {
		return G1{}, err
	}
	return G1{p: p}, nil
}

// G2FromBytes parses a canonical, fixed-length G2 point encoding.
func G2FromBytes(b []byte) (G2, error) {
	p, err := pointFromBytes(suite.G2(), b)
	if err != nil {
		return G2{}, err
	}
	return G2{p: p}, nil
}

func pointFromBytes(g kyber.Group, b []byte) (kyber.Point, error) {
	if len(b) != g.PointLen() {
		return nil, ErrInvalidPoint
	}
	p := g.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, ErrInvalidPoint
	}
	out, err := p.MarshalBinary()
	if err != nil || !bytesEqual(out, b) {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

// ToBytes returns the canonical fixed-length encoding (the suite's own
// uncompressed point marshalling).
func (g G1) ToBytes() []byte { return marshal(g.p) }

// ToBytes returns the canonical fixed-length encoding (the suite's own
// uncompressed point marshalling).
func (g G2) ToBytes() []byte { return marshal(g.p) }

// ToBytes returns the canonical fixed-length encoding of a GT element.
func (g GT) ToBytes() []byte { return marshal(g.p) }

func marshal(p kyber.Point) []byte {
	b, err := p.MarshalBinary()
	if err != nil {
		panic("curve: marshalling a valid point never fails: " + err.Error())
	}
	return b
}

// Mul returns g*s.
func (g G1) Mul(s Scalar) G1 { return G1{p: suite.G1().Point().Mul(s.s, g.p)} }

// Mul returns g*s.
func (g G2) Mul(s Scalar) G2 { return G2{p: suite.G2().Point().Mul(s.s, g.p)} }

// Add returns g + other.
func (g G1) Add(other G1) G1 { return G1{p: suite.G1().Point().Add(g.p, other.p)} }

// Sub returns g - other.
func (g G1) Sub(other G1) G1 { return G1{p: suite.G1().Point().Sub(g.p, other.p)} }

// Equal reports whether the two points are the same group element.
func (g G1) Equal(other G1) bool { return g.p.Equal(other.p) }

// Equal reports whether the two points are the same group element.
func (g G2) Equal(other G2) bool { return g.p.Equal(other.p) }

// Equal reports whether the two elements are the same GT element.
func (g GT) Equal(other GT) bool { return g.p.Equal(other.p) }

// Pair computes the bilinear pairing e(g1, g2) in GT.
func Pair(g1 G1, g2 G2) GT {
	return GT{p: suite.Pair(g1.p, g2.p)}
}

// HashToG1 deterministically maps arbitrary bytes onto a point in G1.
//
// This is a documented simplification of a true constant-time hash-to-curve
// (the BN256 suite exposes no public SWU/isogeny primitive): it expands msg
// through the suite's XOF into a scalar and multiplies the G1 generator by
// it. Every consumer in this module only needs hash-to-G1 to be
// deterministic and a function of the input bytes, not indifferentiable
// from a random oracle - see SPEC_FULL.md §3.1.
func HashToG1(msg []byte) G1 {
	scalar := suite.G1().Scalar().Pick(suite.XOF(msg))
	return G1Generator().Mul(Scalar{s: scalar})
}

// ErrInvalidPoint is returned when a byte string is not a canonical
// encoding of a scalar or group element.
var ErrInvalidPoint = errInvalidPoint{}

type errInvalidPoint struct{}

func (errInvalidPoint) Error() string { return "curve: invalid point or scalar encoding" }
