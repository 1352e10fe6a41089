// Package dem implements the data-encapsulation modes used to encrypt the
// actual payload once the symmetric key has been recovered: AES-256-GCM
// with a fixed nonce (safe because every key is used exactly once),
// HMAC-SHA3-256 in counter mode with a separate MAC, and a no-op "plain"
// mode for callers that only want the derived key.
package dem

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/seal-ibe/seal-go/pkg/kdf"
)

// KeySize is the length in bytes of every DEM key.
const KeySize = 32

// ErrAuthenticationFailed is returned when a decryption's integrity check
// (GCM tag or HMAC) does not match.
var ErrAuthenticationFailed = errors.New("dem: authentication failed")

// GenerateKey draws a fresh random 32-byte key. Callers must never reuse a
// key across two encryptions of the fixed-IV Aes256Gcm mode.
func GenerateKey() ([KeySize]byte, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, errors.Wrap(err, "dem: generating key")
	}
	return key, nil
}

// aesGCMFixedIV is the module-wide fixed 96-bit IV for Aes256Gcm. Safe only
// under the invariant that a key is used for exactly one encryption, which
// this module's callers enforce by deriving a fresh baseKey per message.
var aesGCMFixedIV = [12]byte{0x8a, 0x37, 0x99, 0xfd, 0xc6, 0x2e, 0x79, 0xdb, 0xa0, 0x80, 0x59, 0x07}

// Aes256GcmCiphertext is the {blob, aad} pair the envelope codec stores for
// the Aes256Gcm variant.
type Aes256GcmCiphertext struct {
	Blob []byte
	AAD  []byte
}

// Aes256GcmEncrypt encrypts plaintext under key with the module's fixed IV,
// authenticating aad alongside it.
func Aes256GcmEncrypt(key [KeySize]byte, plaintext, aad []byte) (Aes256GcmCiphertext, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return Aes256GcmCiphertext{}, errors.Wrap(err, "dem: aes cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Aes256GcmCiphertext{}, errors.Wrap(err, "dem: gcm")
	}
	blob := gcm.Seal(nil, aesGCMFixedIV[:], plaintext, aad)
	return Aes256GcmCiphertext{Blob: blob, AAD: aad}, nil
}

// Aes256GcmDecrypt reverses Aes256GcmEncrypt, failing with
// ErrAuthenticationFailed if the tag or aad does not match.
func Aes256GcmDecrypt(key [KeySize]byte, ct Aes256GcmCiphertext) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "dem: aes cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "dem: gcm")
	}
	plaintext, err := gcm.Open(nil, aesGCMFixedIV[:], ct.Blob, ct.AAD)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Hmac256CtrCiphertext is the {blob, mac, aad} triple the envelope codec
// stores for the Hmac256Ctr variant.
type Hmac256CtrCiphertext struct {
	Blob []byte
	MAC  [32]byte
	AAD  []byte
}

// hmacCtrBlockSize is the keystream block size in bytes, fixed by the
// protocol (not related to AES's 16-byte block size).
const hmacCtrBlockSize = 32

// Hmac256CtrEncrypt is a deterministic authenticated encryption: the
// keystream is HMAC-SHA3-256 in counter mode, and the MAC covers the
// associated data's length, the associated data, and the ciphertext.
func Hmac256CtrEncrypt(key [KeySize]byte, plaintext, aad []byte) Hmac256CtrCiphertext {
	blob := ctrStream(key, plaintext)
	mac := computeMAC(key, aad, blob)
	return Hmac256CtrCiphertext{Blob: blob, MAC: mac, AAD: aad}
}

// Hmac256CtrDecrypt verifies the MAC before decrypting, returning
// ErrAuthenticationFailed on mismatch. CTR-mode encryption is its own
// inverse, so decryption reuses ctrStream.
func Hmac256CtrDecrypt(key [KeySize]byte, ct Hmac256CtrCiphertext) ([]byte, error) {
	actual := computeMAC(key, ct.AAD, ct.Blob)
	if actual != ct.MAC {
		return nil, ErrAuthenticationFailed
	}
	return ctrStream(key, ct.Blob), nil
}

func ctrStream(key [KeySize]byte, data []byte) []byte {
	encryptionKey := kdf.HMACSHA3256(key[:], []byte{1})
	out := make([]byte, len(data))
	for i := 0; i*hmacCtrBlockSize < len(data); i++ {
		start := i * hmacCtrBlockSize
		end := start + hmacCtrBlockSize
		if end > len(data) {
			end = len(data)
		}
		mask := kdf.HMACSHA3256(encryptionKey[:], blockIndexBytes(i))
		for j := start; j < end; j++ {
			out[j] = data[j] ^ mask[j-start]
		}
	}
	return out
}

func computeMAC(key [KeySize]byte, aad, ciphertext []byte) [32]byte {
	macKey := kdf.HMACSHA3256(key[:], []byte{2})
	input := make([]byte, 0, 8+len(aad)+len(ciphertext))
	input = append(input, uint64LE(uint64(len(aad)))...)
	input = append(input, aad...)
	input = append(input, ciphertext...)
	return kdf.HMACSHA3256(macKey[:], input)
}

func blockIndexBytes(i int) []byte {
	return uint64LE(uint64(i))
}

func uint64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
