package sharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCombineByteVector reproduces the field's own regression vector:
// combining shares (1,2),(2,3),(3,4),(4,5) at x=0 must yield 202.
func TestCombineByteVector(t *testing.T) {
	pts := []point{
		{x: GF256(1), y: GF256(2)},
		{x: GF256(2), y: GF256(3)},
		{x: GF256(3), y: GF256(4)},
		{x: GF256(4), y: GF256(5)},
	}
	assert.Equal(t, GF256(202), combineByte(pts))
}

func TestSplitCombineRoundTrip(t *testing.T) {
	secret := []byte("the quick brown fox jumps")
	shares, err := Split(secret, 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	got, err := Combine(shares[1:4])
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	got2, err := Combine([]Share{shares[0], shares[2], shares[4]})
	require.NoError(t, err)
	assert.Equal(t, secret, got2)
}

func TestSplitThresholdOneDegenerate(t *testing.T) {
	secret := []byte("shared by everyone")
	shares, err := Split(secret, 4, 1)
	require.NoError(t, err)
	for _, s := range shares {
		assert.Equal(t, secret, s.Data)
	}
}

func TestVerifyConsistencyDetectsBadShare(t *testing.T) {
	secret := []byte("abcd")
	shares, err := Split(secret, 5, 3)
	require.NoError(t, err)

	polys, err := ReconstructPolynomials(shares[:3])
	require.NoError(t, err)
	assert.True(t, VerifyConsistency(polys, shares))

	tampered := make([]Share, len(shares))
	copy(tampered, shares)
	tampered[4] = Share{Index: shares[4].Index, Data: []byte{shares[4].Data[0] ^ 0xFF, shares[4].Data[1], shares[4].Data[2], shares[4].Data[3]}}
	assert.False(t, VerifyConsistency(polys, tampered))
}
