// Package sealclient is the public client-library surface: SealClient
// ties together the curve/kdf/dem/ibe/sharing/envelope primitives with a
// session-key lifecycle, certificate issuance, per-request ElGamal key
// wrapping, and the partial-key fetch orchestrator that talks to the key
// servers over HTTP.
package sealclient

import (
	"context"

	"github.com/seal-ibe/seal-go/pkg/curve"
)

// KeyType enumerates the IBE constructions a KeyServer may advertise. Only
// one exists today; the field exists so a future scheme can be added
// without breaking the wire format.
type KeyType byte

const (
	KeyTypeBonehFranklinBLS12381 KeyType = 0
)

// KeyServer is a client-side view of an on-ledger key server descriptor.
type KeyServer struct {
	ObjectID [32]byte
	Name     string
	URL      string
	KeyType  KeyType
	PK       curve.G2
}

// LedgerClient is the injected collaborator for resolving on-ledger
// objects (key server descriptors, and anything the caller's PTB
// validator needs) - out of scope for this module beyond this contract.
type LedgerClient interface {
	GetObject(ctx context.Context, objectID [32]byte) ([]byte, error)
}

// Signer is the injected wallet capability that can produce a personal
// message signature over a SessionKey's authorization text.
type Signer interface {
	Sign(ctx context.Context, message []byte) ([]byte, error)
}

// Verifier is the injected wallet-verification collaborator: it is
// deliberately not hard-coded to any specific ledger network so the
// library stays network-agnostic.
type Verifier interface {
	VerifyPersonalMessageSignature(ctx context.Context, message, signature []byte, address string) error
}

// KeyServerTransport is the injected HTTP collaborator for talking to key
// servers; internal/keyserverhttp supplies the default net/http
// implementation.
type KeyServerTransport interface {
	Service(ctx context.Context, url string) (ServiceResponse, error)
	FetchKey(ctx context.Context, url string, req FetchKeyRequest) (FetchKeyResponse, error)
}

// ServiceResponse is the key server's /v1/service response.
type ServiceResponse struct {
	ServiceID string
	PoP       []byte // G1 proof-of-possession signature (curve.G1Len() bytes)
}

// FetchKeyRequest is the body POSTed to /v1/fetch_key.
type FetchKeyRequest struct {
	PTB                 []byte
	EncKey              curve.G1
	EncVerificationKey  curve.G2
	RequestSignature    []byte
	Certificate         *Certificate
	RequestID           string
}

// DecryptionKeyEntry is one element of a FetchKeyResponse.
type DecryptionKeyEntry struct {
	ID           []byte
	EncryptedKey [2][]byte // [c1_bytes, c2_bytes] of the ElGamal encryption
}

// FetchKeyResponse is the key server's /v1/fetch_key response.
type FetchKeyResponse struct {
	DecryptionKeys []DecryptionKeyEntry
}
