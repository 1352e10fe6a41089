package sealclient

import (
	"time"

	"github.com/seal-ibe/seal-go/pkg/curve"
)

// Certificate is the structured witness a SessionKey issues to prove a
// wallet authorized its ephemeral signing key, sent to key servers
// alongside every fetch_key request.
type Certificate struct {
	User             string
	SessionVerifyKey string // base64, 32 raw bytes
	CreationTime     time.Time
	TTLMin           int
	Signature        string // base64
}

// RequestParams is the per-fetch ElGamal keypair and the session-key
// signature binding it to a specific PTB, generated fresh by
// SessionKey.CreateRequestParams for every fetchKeys call.
type RequestParams struct {
	DecryptionKey      ElGamalSecretKey
	RequestSignature   []byte
	EncKey             curve.G1
	EncVerificationKey curve.G2
}
