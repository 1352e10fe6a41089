// ElGamal-on-G1 wraps each fetched user secret key for transport back to
// this client: the key server never learns the client's ElGamal secret,
// so it cannot itself decrypt the partial key it releases.
//
// This reimplements, directly on pkg/curve, the scheme the teacher's
// ppks.CipherText{K, C} carried (K=g*r, C=pk*r+m); see DESIGN.md and
// SPEC_FULL.md §4.11 for why ppks itself could not be wired - its source
// was never retrieved into this corpus.
package sealclient

import "github.com/seal-ibe/seal-go/pkg/curve"

// ElGamalSecretKey is a per-fetch ElGamal secret, generated fresh by
// SessionKey.CreateRequestParams and never reused.
type ElGamalSecretKey struct{ sk curve.Scalar }

// ElGamalPublicKey is sent to key servers so they can wrap a partial key
// under it: pk = g1*sk.
type ElGamalPublicKey struct{ pk curve.G1 }

// ElGamalVerificationKey is sent alongside the public key so a server may
// bind its response to the verification domain if it wishes: vk = g2*sk.
type ElGamalVerificationKey struct{ vk curve.G2 }

// ElGamalEncryption is a ciphertext (c1, c2) = (g1*r, pk*r + m).
type ElGamalEncryption struct {
	C1 curve.G1
	C2 curve.G1
}

// GenerateElGamalKeyPair draws a fresh secret key and derives its public
// and verification keys.
func GenerateElGamalKeyPair() (ElGamalSecretKey, ElGamalPublicKey, ElGamalVerificationKey) {
	sk := curve.RandomScalar()
	return ElGamalSecretKey{sk: sk},
		ElGamalPublicKey{pk: curve.G1Generator().Mul(sk)},
		ElGamalVerificationKey{vk: curve.G2Generator().Mul(sk)}
}

// ElGamalEncrypt encrypts a G1 message point under pk.
func ElGamalEncrypt(msg curve.G1, pk ElGamalPublicKey) ElGamalEncryption {
	r := curve.RandomScalar()
	return ElGamalEncryption{
		C1: curve.G1Generator().Mul(r),
		C2: pk.pk.Mul(r).Add(msg),
	}
}

// ElGamalDecrypt recovers the message point: m = c2 - c1*sk.
func ElGamalDecrypt(sk ElGamalSecretKey, enc ElGamalEncryption) curve.G1 {
	return enc.C2.Sub(enc.C1.Mul(sk.sk))
}
