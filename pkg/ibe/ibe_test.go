package ibe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seal-ibe/seal-go/pkg/curve"
)

func TestExtractAndVerify(t *testing.T) {
	sk, pk := GenerateKeyPair()
	id := []byte("alice@example.com")

	usk := Extract(sk, id)
	assert.True(t, VerifyUserSecretKey(usk, id, pk))
	assert.False(t, VerifyUserSecretKey(usk, []byte("bob@example.com"), pk))
}

func TestEncryptBatchedDecrypt(t *testing.T) {
	const n = 3
	sks := make([]MasterKey, n)
	pks := make([]PublicKey, n)
	for i := range sks {
		sks[i], pks[i] = GenerateKeyPair()
	}

	id := []byte("doc-42")
	var randomnessKey [KeySize]byte

	messages := make([]Message, n)
	for i := range messages {
		var block [KeySize]byte
		block[0] = byte(i + 1)
		messages[i] = Message{Plaintext: block, Info: []byte{byte(i)}}
	}

	result, err := EncryptBatched(pks, id, messages, randomnessKey)
	require.NoError(t, err)

	for i := range messages {
		usk := Extract(sks[i], id)
		got := Decrypt(result.Nonce, usk, result.EncryptedShares[i], messages[i].Info)
		assert.Equal(t, messages[i].Plaintext, got)
	}
}

func TestDecryptDeterministicMatchesDecrypt(t *testing.T) {
	sk, pk := GenerateKeyPair()
	id := []byte("server-1")
	var randomnessKey [KeySize]byte
	msg := Message{Info: []byte{7}}
	msg.Plaintext[0] = 0xAB

	result, err := EncryptBatched([]PublicKey{pk}, id, []Message{msg}, randomnessKey)
	require.NoError(t, err)

	r, err := DecryptAndVerifyNonce(result.EncryptedRandomness, randomnessKey, result.Nonce)
	require.NoError(t, err)

	usk := Extract(sk, id)
	viaUSK := Decrypt(result.Nonce, usk, result.EncryptedShares[0], msg.Info)
	viaR := DecryptDeterministic(r, result.EncryptedShares[0], pk, id, msg.Info)
	assert.Equal(t, viaUSK, viaR)
}

func TestDecryptAndVerifyNonceRejectsWrongNonce(t *testing.T) {
	_, pk := GenerateKeyPair()
	id := []byte("x")
	var randomnessKey [KeySize]byte
	result, err := EncryptBatched([]PublicKey{pk}, id, []Message{{}}, randomnessKey)
	require.NoError(t, err)

	_, err = DecryptAndVerifyNonce(result.EncryptedRandomness, randomnessKey, curve.G2Generator())
	assert.Error(t, err)
}
