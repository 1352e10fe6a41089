package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/dem"
)

func sampleObject(t *testing.T, kind CiphertextKind) *EncryptedObject {
	t.Helper()
	var packageID [32]byte
	packageID[0] = 0x01

	services := []KeyServerEntry{
		{ObjectID: [32]byte{1}, Index: 1},
		{ObjectID: [32]byte{2}, Index: 2},
		{ObjectID: [32]byte{3}, Index: 3},
	}

	shares := make([][32]byte, len(services))
	for i := range shares {
		shares[i][0] = byte(i + 1)
	}
	var encryptedRandomness [32]byte
	encryptedRandomness[1] = 0x42

	var ct Ciphertext
	switch kind {
	case CiphertextAes256Gcm:
		ct = Ciphertext{Kind: CiphertextAes256Gcm, AesGcm: dem.Aes256GcmCiphertext{Blob: []byte("blob-bytes"), AAD: []byte("aad")}}
	case CiphertextHmac256Ctr:
		var mac [32]byte
		mac[0] = 0x9
		ct = Ciphertext{Kind: CiphertextHmac256Ctr, HmacCtr: dem.Hmac256CtrCiphertext{Blob: []byte("ctr-blob"), MAC: mac}}
	case CiphertextPlain:
		ct = Ciphertext{Kind: CiphertextPlain}
	}

	return &EncryptedObject{
		PackageID: packageID,
		ID:        []byte{1, 2, 3, 4},
		Services:  services,
		Threshold: 2,
		EncryptedShares: IBEEncryptedShares{
			Nonce:               curve.G2Generator(),
			EncryptedShares:     shares,
			EncryptedRandomness: encryptedRandomness,
		},
		Ciphertext: ct,
	}
}

func TestRoundTripAllCiphertextKinds(t *testing.T) {
	for _, kind := range []CiphertextKind{CiphertextAes256Gcm, CiphertextHmac256Ctr, CiphertextPlain} {
		obj := sampleObject(t, kind)
		raw, err := obj.Marshal()
		require.NoError(t, err)

		parsed, err := Unmarshal(raw)
		require.NoError(t, err)

		assert.Equal(t, obj.PackageID, parsed.PackageID)
		assert.Equal(t, obj.ID, parsed.ID)
		assert.Equal(t, obj.Services, parsed.Services)
		assert.Equal(t, obj.Threshold, parsed.Threshold)
		assert.True(t, obj.EncryptedShares.Nonce.Equal(parsed.EncryptedShares.Nonce))
		assert.Equal(t, obj.EncryptedShares.EncryptedShares, parsed.EncryptedShares.EncryptedShares)
		assert.Equal(t, obj.EncryptedShares.EncryptedRandomness, parsed.EncryptedShares.EncryptedRandomness)
		assert.Equal(t, obj.Ciphertext, parsed.Ciphertext)

		raw2, err := parsed.Marshal()
		require.NoError(t, err)
		assert.Equal(t, raw, raw2)
	}
}

func TestUnmarshalRejectsTruncated(t *testing.T) {
	obj := sampleObject(t, CiphertextAes256Gcm)
	raw, err := obj.Marshal()
	require.NoError(t, err)

	_, err = Unmarshal(raw[:len(raw)-5])
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestValidateRejectsMismatchedShareCount(t *testing.T) {
	obj := sampleObject(t, CiphertextPlain)
	obj.EncryptedShares.EncryptedShares = obj.EncryptedShares.EncryptedShares[:1]
	_, err := obj.Marshal()
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
