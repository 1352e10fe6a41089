package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	s := RandomScalar()
	s2, err := ScalarFromBytes(s.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, s.ToBytes(), s2.ToBytes())
}

func TestG1G2RoundTrip(t *testing.T) {
	s := RandomScalar()
	g1 := G1Generator().Mul(s)
	g1b, err := G1FromBytes(g1.ToBytes())
	require.NoError(t, err)
	assert.True(t, g1.Equal(g1b))

	g2 := G2Generator().Mul(s)
	g2b, err := G2FromBytes(g2.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, g2.ToBytes(), g2b.ToBytes())
}

func TestPairingBilinearity(t *testing.T) {
	a := RandomScalar()
	b := RandomScalar()

	lhs := Pair(G1Generator().Mul(a), G2Generator().Mul(b))
	rhs := Pair(G1Generator().Mul(b), G2Generator().Mul(a))
	assert.True(t, lhs.Equal(rhs))
}

func TestHashToG1Deterministic(t *testing.T) {
	msg := []byte("seal identity")
	a := HashToG1(msg)
	b := HashToG1(msg)
	assert.True(t, a.Equal(b))

	c := HashToG1([]byte("a different identity"))
	assert.False(t, a.Equal(c))
}

func TestWrongLengthPointRejected(t *testing.T) {
	_, err := G1FromBytes(make([]byte, G1Len()-1))
	assert.ErrorIs(t, err, ErrInvalidPoint)
}
