package sealclient

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/seal-ibe/seal-go/pkg/sealerr"
)

// sessionKeySkewMillis is the tolerance subtracted from a session's TTL
// before it is considered usable, absorbing clock drift between this
// client and the key servers it talks to.
const sessionKeySkewMillis = 10_000

// SessionKey models one application session's authorization to fetch
// partial keys: a wallet-signed personal message binds an ephemeral
// signing keypair to an address for a bounded lifetime. It is single-
// writer for SetPersonalMessageSignature and read-only (safe to share
// across concurrent fetches) once authorized.
type SessionKey struct {
	mu sync.Mutex

	address      string
	packageID    [32]byte
	creationTime time.Time
	ttlMin       int

	verifyKey ed25519.PublicKey
	signKey   ed25519.PrivateKey

	signature []byte
	signer    Signer
	verifier  Verifier
}

// SessionKeyOptions configures NewSessionKey.
type SessionKeyOptions struct {
	Address   string
	PackageID [32]byte
	TTLMin    int
	Signer    Signer
	Verifier  Verifier
}

// NewSessionKey generates a fresh ephemeral signing keypair and starts the
// session's lifetime clock at the current time.
func NewSessionKey(opts SessionKeyOptions) (*SessionKey, error) {
	if opts.Address == "" {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidPackage, "address must not be empty")
	}
	if opts.TTLMin < 1 || opts.TTLMin > 10 {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidThreshold, "ttlMin must be in [1,10]")
	}
	verifyKey, signKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "sealclient: generating session signing keypair")
	}
	return &SessionKey{
		address:      opts.Address,
		packageID:    opts.PackageID,
		creationTime: time.Now().UTC(),
		ttlMin:       opts.TTLMin,
		verifyKey:    verifyKey,
		signKey:      signKey,
		signer:       opts.Signer,
		verifier:     opts.Verifier,
	}, nil
}

// GetPersonalMessage returns the exact UTF-8 bytes a wallet must sign to
// authorize this session. The text is part of the wire contract with
// wallets and must match byte for byte.
func (sk *SessionKey) GetPersonalMessage() []byte {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	return sk.personalMessage()
}

func (sk *SessionKey) personalMessage() []byte {
	ts := sk.creationTime.Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(
		"Accessing keys of package %x for %d mins from %s UTC, session key %s",
		sk.packageID, sk.ttlMin, ts, base64.StdEncoding.EncodeToString(sk.verifyKey),
	)
	return []byte(msg)
}

// SetPersonalMessageSignature records a wallet-produced signature over
// GetPersonalMessage, verifying it against the session's address first.
func (sk *SessionKey) SetPersonalMessageSignature(ctx context.Context, signature []byte) error {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	if sk.verifier == nil {
		return sealerr.NewUserError(sealerr.CodeInvalidPersonalMessageSignature, "no verifier configured")
	}
	if err := sk.verifier.VerifyPersonalMessageSignature(ctx, sk.personalMessage(), signature, sk.address); err != nil {
		return sealerr.NewUserError(sealerr.CodeInvalidPersonalMessageSignature, err.Error())
	}
	sk.signature = signature
	return nil
}

// GetCertificate returns the structured witness a key server uses to
// confirm the wallet authorized this session's ephemeral signing key. If
// no signature has been set yet and a Signer was supplied at construction,
// the Signer is invoked with the personal message; idempotent afterward.
func (sk *SessionKey) GetCertificate(ctx context.Context) (*Certificate, error) {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	if sk.signature == nil {
		if sk.signer == nil {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidPersonalMessageSignature, "session key has no signature and no signer configured")
		}
		sig, err := sk.signer.Sign(ctx, sk.personalMessage())
		if err != nil {
			return nil, errors.Wrap(err, "sealclient: wallet signing personal message")
		}
		if sk.verifier != nil {
			if err := sk.verifier.VerifyPersonalMessageSignature(ctx, sk.personalMessage(), sig, sk.address); err != nil {
				return nil, sealerr.NewUserError(sealerr.CodeInvalidPersonalMessageSignature, err.Error())
			}
		}
		sk.signature = sig
	}

	return &Certificate{
		User:              sk.address,
		SessionVerifyKey:  base64.StdEncoding.EncodeToString(sk.verifyKey),
		CreationTime:      sk.creationTime,
		TTLMin:            sk.ttlMin,
		Signature:         base64.StdEncoding.EncodeToString(sk.signature),
	}, nil
}

// IsExpired reports whether the session is past its usable lifetime,
// absorbing sessionKeySkewMillis of clock drift.
func (sk *SessionKey) IsExpired() bool {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	deadline := sk.creationTime.Add(time.Duration(sk.ttlMin)*time.Minute - time.Duration(sessionKeySkewMillis)*time.Millisecond)
	return time.Now().UTC().After(deadline)
}

// CreateRequestParams builds a fresh ElGamal keypair and signs it, along
// with the caller's PTB bytes (intent-tag byte stripped), with the
// session's ephemeral key.
func (sk *SessionKey) CreateRequestParams(ptbBytes []byte) (*RequestParams, error) {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	if sk.isExpiredLocked() {
		return nil, sealerr.NewUserError(sealerr.CodeExpiredSessionKey, "session key has expired")
	}
	if len(ptbBytes) < 1 {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidCiphertext, "ptb bytes must include an intent tag")
	}

	egSK, egPK, egVK := GenerateElGamalKeyPair()

	msg := buildRequestFormat(ptbBytes[1:], egPK, egVK)
	sig := ed25519.Sign(sk.signKey, msg)

	return &RequestParams{
		DecryptionKey:      egSK,
		RequestSignature:   sig,
		EncKey:             egPK.pk,
		EncVerificationKey: egVK.vk,
	}, nil
}

func (sk *SessionKey) isExpiredLocked() bool {
	deadline := sk.creationTime.Add(time.Duration(sk.ttlMin)*time.Minute - time.Duration(sessionKeySkewMillis)*time.Millisecond)
	return time.Now().UTC().After(deadline)
}

// Address returns the wallet address this session is bound to.
func (sk *SessionKey) Address() string { return sk.address }

// PackageID returns the package this session was created for.
func (sk *SessionKey) PackageID() [32]byte { return sk.packageID }

// buildRequestFormat assembles the canonical message the ephemeral key
// signs: the PTB body and both halves of the freshly generated ElGamal
// keypair, in that order.
func buildRequestFormat(ptbBody []byte, egPK ElGamalPublicKey, egVK ElGamalVerificationKey) []byte {
	out := make([]byte, 0, len(ptbBody)+48+96)
	out = append(out, ptbBody...)
	out = append(out, egPK.pk.ToBytes()...)
	out = append(out, egVK.vk.ToBytes()...)
	return out
}
