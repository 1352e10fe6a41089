// Package ibe implements the Boneh-Franklin identity-based encryption
// scheme over the curve package's pairing group: any byte string can serve
// as a public key, and the corresponding private key is extracted by a
// trusted key server from its own master key.
package ibe

import (
	"github.com/pkg/errors"
	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/kdf"
)

// MasterKey is a key server's secret, held only by the server.
type MasterKey = curve.Scalar

// PublicKey is a key server's published public key.
type PublicKey = curve.G2

// UserSecretKey is the per-identity private key a server extracts on
// request, once the caller's access policy is satisfied.
type UserSecretKey = curve.G1

// Nonce is the per-encryption G2 commitment to the batch's random scalar.
type Nonce = curve.G2

// Randomness is the per-encryption random scalar, recoverable by whoever
// holds the root symmetric key it was used to mask.
type Randomness = curve.Scalar

// KeySize is the length in bytes of a plaintext/ciphertext block.
const KeySize = 32

// GenerateKeyPair produces a fresh master key and its public key.
func GenerateKeyPair() (MasterKey, PublicKey) {
	sk := curve.RandomScalar()
	return sk, PublicKeyFromMasterKey(sk)
}

// PublicKeyFromMasterKey derives PK = g2*sk.
func PublicKeyFromMasterKey(masterKey MasterKey) PublicKey {
	return curve.G2Generator().Mul(masterKey)
}

// Extract derives the user secret key USK = H(id)*sk for id under masterKey.
func Extract(masterKey MasterKey, id []byte) UserSecretKey {
	return curve.HashToG1(id).Mul(masterKey)
}

// VerifyUserSecretKey checks e(usk, g2) == e(H(id), pk), i.e. that usk is
// the genuine extraction of id under the master key behind pk.
func VerifyUserSecretKey(usk UserSecretKey, id []byte, publicKey PublicKey) bool {
	lhs := curve.Pair(usk, curve.G2Generator())
	rhs := curve.Pair(curve.HashToG1(id), publicKey)
	return lhs.Equal(rhs)
}

// Message is one plaintext block and the key-derivation info bound to it
// (typically the share index, so distinct servers never derive the same
// symmetric key even when their plaintext shares collide).
type Message struct {
	Plaintext [KeySize]byte
	Info      []byte
}

// EncryptBatchedResult is the output of EncryptBatched: one nonce shared
// across the whole batch, one ciphertext block per message, and the
// random scalar masked under the caller-supplied randomness key.
type EncryptBatchedResult struct {
	Nonce               Nonce
	EncryptedShares     [][KeySize]byte
	EncryptedRandomness [KeySize]byte
}

// EncryptBatched encrypts one message per public key under a single
// random scalar r, shared across the whole batch: nonce = g2*r, and
// message i is masked by kdf(e(H(id)*r, publicKeys[i]), info_i). Exactly
// one random scalar spans every server, so a holder of the randomness key
// who recovers r from EncryptedRandomness (see DecryptAndVerifyNonce) can,
// with the public keys, re-derive every share's key deterministically (see
// DecryptDeterministic).
func EncryptBatched(publicKeys []PublicKey, id []byte, messages []Message, randomnessKey [KeySize]byte) (EncryptBatchedResult, error) {
	if len(publicKeys) != len(messages) {
		return EncryptBatchedResult{}, errors.New("ibe: public key and message counts differ")
	}
	r := curve.RandomScalar()
	nonce := curve.G2Generator().Mul(r)
	gid := curve.HashToG1(id).Mul(r)

	shares := make([][KeySize]byte, len(messages))
	for i, msg := range messages {
		k := curve.Pair(gid, publicKeys[i])
		shares[i] = xor32(kdf.Derive(k, msg.Info), msg.Plaintext)
	}

	return EncryptBatchedResult{
		Nonce:               nonce,
		EncryptedShares:     shares,
		EncryptedRandomness: xor32(randomnessKey, scalarTo32(r)),
	}, nil
}

// Decrypt recovers the plaintext block a user secret key unlocks:
// k = e(usk, nonce), plaintext = ciphertext XOR kdf(k, info).
func Decrypt(nonce Nonce, usk UserSecretKey, ciphertext [KeySize]byte, info []byte) [KeySize]byte {
	k := curve.Pair(usk, nonce)
	return xor32(ciphertext, kdf.Derive(k, info))
}

// DecryptDeterministic recovers the same plaintext block as Decrypt would,
// given the batch's randomness r and a server's public key instead of that
// server's user secret key: e(H(id)*r, pk) == e(usk, g2*r) by bilinearity.
// This lets a holder of r decrypt every share in a batch, not just the
// ones it holds user secret keys for - the primitive the share-consistency
// check is built on.
func DecryptDeterministic(randomness Randomness, ciphertext [KeySize]byte, publicKey PublicKey, id []byte, info []byte) [KeySize]byte {
	gidR := curve.HashToG1(id).Mul(randomness)
	k := curve.Pair(gidR, publicKey)
	return xor32(ciphertext, kdf.Derive(k, info))
}

// DecryptAndVerifyNonce recovers r from an encrypted-randomness block and
// a derived key, then checks g2*r == nonce before returning it - used by a
// holder of the DEM key who wants to confirm the envelope's nonce is
// genuinely the commitment to the randomness it claims.
func DecryptAndVerifyNonce(encryptedRandomness, derivedKey [KeySize]byte, nonce Nonce) (Randomness, error) {
	rBytes := xor32(derivedKey, encryptedRandomness)
	r, err := curve.ScalarFromBytes(rBytes[:])
	if err != nil {
		return curve.Scalar{}, errors.Wrap(err, "ibe: invalid randomness encoding")
	}
	if !curve.G2Generator().Mul(r).Equal(nonce) {
		return curve.Scalar{}, errors.New("ibe: randomness does not match nonce")
	}
	return r, nil
}

func xor32(a, b [KeySize]byte) [KeySize]byte {
	var out [KeySize]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func scalarTo32(s curve.Scalar) [KeySize]byte {
	var out [KeySize]byte
	copy(out[:], s.ToBytes())
	return out
}
