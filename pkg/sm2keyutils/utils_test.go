package sm2keyutils

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjfoc/gmsm/sm2"
)

func genTestPrivateKey(t *testing.T) *sm2.PrivateKey {
	t.Helper()
	d, err := rand.Int(rand.Reader, sm2.P256Sm2().Params().N)
	require.NoError(t, err)
	if d.Sign() == 0 {
		d = big.NewInt(1)
	}
	return ConvertBigIntegerToPrivateKey(d)
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	privKey := genTestPrivateKey(t)

	privKeyPem, err := ConvertPrivateKeyToPEM(privKey)
	require.NoError(t, err)

	unmarshalled, err := ConvertPEMToPrivateKey(privKeyPem)
	require.NoError(t, err)
	assert.Equal(t, privKey.D, unmarshalled.D)
	assert.Equal(t, privKey.PublicKey.X, unmarshalled.PublicKey.X)
	assert.Equal(t, privKey.PublicKey.Y, unmarshalled.PublicKey.Y)
}

func TestPublicKeyPEMRoundTrip(t *testing.T) {
	privKey := genTestPrivateKey(t)
	pubKey := privKey.PublicKey

	pubKeyPem, err := ConvertPublicKeyToPEM(&pubKey)
	require.NoError(t, err)

	unmarshalled, err := ConvertPEMToPublicKey(pubKeyPem)
	require.NoError(t, err)
	assert.Equal(t, pubKey.X, unmarshalled.X)
	assert.Equal(t, pubKey.Y, unmarshalled.Y)
}

func TestConvertBigIntegersToPublicKeyRejectsOffCurvePoint(t *testing.T) {
	_, err := ConvertBigIntegersToPublicKey(big.NewInt(1), big.NewInt(1))
	assert.Error(t, err)
}
