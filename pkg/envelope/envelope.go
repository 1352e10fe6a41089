// Package envelope implements the canonical little-endian binary codec for
// the encrypted object this module's encrypt/decrypt operations produce
// and consume: version, package, identity, the server/share-index list,
// threshold, the IBE-encrypted shares, and the DEM ciphertext.
//
// Variable-length fields are length-prefixed with ULEB128 via
// google.golang.org/protobuf/encoding/protowire, which implements the same
// varint convention under a different name (it is the wire format every
// protobuf field length and varint value already uses in this corpus's
// fabric/protobuf-based teacher and in xygdys-Buada_BFT's own protobuf
// package).
package envelope

import (
	"github.com/pkg/errors"
	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/dem"
	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the only wire version this codec emits or accepts.
const Version = 0

// ErrInvalidCiphertext covers every parse-time structural failure: unknown
// version, truncated input, unknown discriminator, mismatched array
// lengths, non-canonical curve bytes, or an out-of-range threshold.
var ErrInvalidCiphertext = errors.New("envelope: invalid ciphertext")

// KeyServerEntry is one (objectId, shareIndex) pair in the services list.
// Duplicates are permitted: a server may hold more than one share.
type KeyServerEntry struct {
	ObjectID [32]byte
	Index    byte
}

// IBEEncryptedShares is the BonehFranklinBLS12381 variant of the
// encryptedShares tagged union.
type IBEEncryptedShares struct {
	Nonce               curve.G2
	EncryptedShares     [][32]byte // one block per Services entry, same order
	EncryptedRandomness [32]byte
}

// CiphertextKind discriminates the ciphertext tagged union.
type CiphertextKind byte

const (
	CiphertextAes256Gcm  CiphertextKind = 0
	CiphertextHmac256Ctr CiphertextKind = 1
	CiphertextPlain      CiphertextKind = 2
)

// Ciphertext is the tagged union over the three DEM output shapes.
type Ciphertext struct {
	Kind    CiphertextKind
	AesGcm  dem.Aes256GcmCiphertext
	HmacCtr dem.Hmac256CtrCiphertext
}

// EncryptedObject is the full on-wire envelope.
type EncryptedObject struct {
	PackageID       [32]byte
	ID              []byte
	Services        []KeyServerEntry
	Threshold       byte
	EncryptedShares IBEEncryptedShares
	Ciphertext      Ciphertext
}

// Validate checks the structural invariants §3 requires of a constructed
// envelope before it is serialized or acted on.
func (e *EncryptedObject) Validate() error {
	if len(e.EncryptedShares.EncryptedShares) != len(e.Services) {
		return ErrInvalidCiphertext
	}
	if e.Threshold == 0 || int(e.Threshold) > len(e.Services) {
		return ErrInvalidCiphertext
	}
	return nil
}

// Marshal serializes the envelope into its canonical wire form.
func (e *EncryptedObject) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var buf []byte
	buf = append(buf, Version)
	buf = append(buf, e.PackageID[:]...)
	buf = appendBytes(buf, e.ID)

	buf = protowire.AppendVarint(buf, uint64(len(e.Services)))
	for _, svc := range e.Services {
		buf = append(buf, svc.ObjectID[:]...)
		buf = append(buf, svc.Index)
	}
	buf = append(buf, e.Threshold)

	buf = append(buf, byte(0)) // only KEM variant: BonehFranklinBLS12381
	buf = append(buf, e.EncryptedShares.Nonce.ToBytes()...)
	buf = protowire.AppendVarint(buf, uint64(len(e.EncryptedShares.EncryptedShares)))
	for _, block := range e.EncryptedShares.EncryptedShares {
		buf = append(buf, block[:]...)
	}
	buf = append(buf, e.EncryptedShares.EncryptedRandomness[:]...)

	buf = append(buf, byte(e.Ciphertext.Kind))
	switch e.Ciphertext.Kind {
	case CiphertextAes256Gcm:
		buf = appendBytes(buf, e.Ciphertext.AesGcm.Blob)
		buf = appendOptionalBytes(buf, e.Ciphertext.AesGcm.AAD)
	case CiphertextHmac256Ctr:
		buf = appendBytes(buf, e.Ciphertext.HmacCtr.Blob)
		buf = append(buf, e.Ciphertext.HmacCtr.MAC[:]...)
		buf = appendOptionalBytes(buf, e.Ciphertext.HmacCtr.AAD)
	case CiphertextPlain:
		// no payload
	default:
		return nil, ErrInvalidCiphertext
	}
	return buf, nil
}

// Unmarshal parses the canonical wire form, failing with
// ErrInvalidCiphertext on any structural violation.
func Unmarshal(data []byte) (*EncryptedObject, error) {
	r := &reader{buf: data}

	version, err := r.byte()
	if err != nil || version != Version {
		return nil, ErrInvalidCiphertext
	}

	var e EncryptedObject
	if err := r.fixed(e.PackageID[:]); err != nil {
		return nil, err
	}
	id, err := r.bytes()
	if err != nil {
		return nil, err
	}
	e.ID = id

	numServices, err := r.varint()
	if err != nil || numServices > maxVectorLen {
		return nil, ErrInvalidCiphertext
	}
	e.Services = make([]KeyServerEntry, numServices)
	for i := range e.Services {
		if err := r.fixed(e.Services[i].ObjectID[:]); err != nil {
			return nil, err
		}
		idx, err := r.byte()
		if err != nil {
			return nil, err
		}
		e.Services[i].Index = idx
	}

	threshold, err := r.byte()
	if err != nil {
		return nil, err
	}
	e.Threshold = threshold

	kemKind, err := r.byte()
	if err != nil || kemKind != 0 {
		return nil, ErrInvalidCiphertext
	}
	nonceBytes, err := r.fixedLen(curve.G2Len())
	if err != nil {
		return nil, err
	}
	nonce, err := curve.G2FromBytes(nonceBytes)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	e.EncryptedShares.Nonce = nonce

	numShares, err := r.varint()
	if err != nil || numShares > maxVectorLen {
		return nil, ErrInvalidCiphertext
	}
	if numShares != uint64(len(e.Services)) {
		return nil, ErrInvalidCiphertext
	}
	e.EncryptedShares.EncryptedShares = make([][32]byte, numShares)
	for i := range e.EncryptedShares.EncryptedShares {
		if err := r.fixed(e.EncryptedShares.EncryptedShares[i][:]); err != nil {
			return nil, err
		}
	}
	if err := r.fixed(e.EncryptedShares.EncryptedRandomness[:]); err != nil {
		return nil, err
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	ctKind, err := r.byte()
	if err != nil {
		return nil, err
	}
	e.Ciphertext.Kind = CiphertextKind(ctKind)
	switch e.Ciphertext.Kind {
	case CiphertextAes256Gcm:
		blob, err := r.bytes()
		if err != nil {
			return nil, err
		}
		aad, err := r.optionalBytes()
		if err != nil {
			return nil, err
		}
		e.Ciphertext.AesGcm = dem.Aes256GcmCiphertext{Blob: blob, AAD: aad}
	case CiphertextHmac256Ctr:
		blob, err := r.bytes()
		if err != nil {
			return nil, err
		}
		var mac [32]byte
		if err := r.fixed(mac[:]); err != nil {
			return nil, err
		}
		aad, err := r.optionalBytes()
		if err != nil {
			return nil, err
		}
		e.Ciphertext.HmacCtr = dem.Hmac256CtrCiphertext{Blob: blob, MAC: mac, AAD: aad}
	case CiphertextPlain:
		// no payload
	default:
		return nil, ErrInvalidCiphertext
	}

	if !r.exhausted() {
		return nil, ErrInvalidCiphertext
	}
	return &e, nil
}

// maxVectorLen bounds length-prefixed vectors against a hostile/corrupt
// length field causing an unreasonable allocation.
const maxVectorLen = 1 << 20

func appendBytes(buf, b []byte) []byte {
	buf = protowire.AppendVarint(buf, uint64(len(b)))
	return append(buf, b...)
}

// appendOptionalBytes encodes an optional aad field as a one-byte presence
// flag followed by the length-prefixed bytes when present.
func appendOptionalBytes(buf, b []byte) []byte {
	if b == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendBytes(buf, b)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) exhausted() bool { return r.pos == len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrInvalidCiphertext
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) fixed(dst []byte) error {
	if r.pos+len(dst) > len(r.buf) {
		return ErrInvalidCiphertext
	}
	copy(dst, r.buf[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return nil
}

func (r *reader) fixedLen(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrInvalidCiphertext
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) varint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.pos:])
	if n < 0 {
		return 0, ErrInvalidCiphertext
	}
	r.pos += n
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.varint()
	if err != nil || n > maxVectorLen {
		return nil, ErrInvalidCiphertext
	}
	return r.fixedLen(int(n))
}

func (r *reader) optionalBytes() ([]byte, error) {
	present, err := r.byte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return r.bytes()
}
