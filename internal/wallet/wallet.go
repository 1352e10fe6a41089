// Package wallet supplies the default sealclient.Signer/Verifier pair:
// personal-message signing and verification over the SM2 curve, using
// this corpus's existing gmsm dependency (see pkg/sm2keyutils) rather than
// inventing a wallet scheme of its own. A wallet's address is the hex
// encoding of its SM2 public key's marshalled bytes - this module has no
// ledger-network identity scheme to defer to, so it picks the simplest
// one that round-trips.
package wallet

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"github.com/seal-ibe/seal-go/pkg/sm2keyutils"
)

// SM2Wallet signs personal messages with a local SM2 private key.
type SM2Wallet struct {
	priv *sm2.PrivateKey
}

// NewSM2Wallet wraps an already-loaded SM2 private key.
func NewSM2Wallet(priv *sm2.PrivateKey) *SM2Wallet {
	return &SM2Wallet{priv: priv}
}

// NewSM2WalletFromPEM loads a wallet's private key from PEM bytes via
// pkg/sm2keyutils, the same PEM<->sm2.PrivateKey conversion this corpus's
// node-key loading path already relies on.
func NewSM2WalletFromPEM(pemBytes []byte) (*SM2Wallet, error) {
	priv, err := sm2keyutils.ConvertPEMToPrivateKey(pemBytes)
	if err != nil {
		return nil, errors.Wrap(err, "wallet: loading private key from PEM")
	}
	return &SM2Wallet{priv: priv}, nil
}

// Address returns this wallet's address, derived from its public key.
func (w *SM2Wallet) Address() string {
	return AddressFromPublicKey(&w.priv.PublicKey)
}

// Sign implements sealclient.Signer.
func (w *SM2Wallet) Sign(ctx context.Context, message []byte) ([]byte, error) {
	sig, err := w.priv.Sign(nil, message, nil)
	if err != nil {
		return nil, errors.Wrap(err, "wallet: signing personal message")
	}
	return sig, nil
}

// AddressFromPublicKey derives the address this package's verifier checks
// a signature against: the hex encoding of the SM2 public key's
// marshalled point.
func AddressFromPublicKey(pub *sm2.PublicKey) string {
	return hex.EncodeToString(marshalPublicKey(pub))
}

func marshalPublicKey(pub *sm2.PublicKey) []byte {
	return append(pub.X.Bytes(), pub.Y.Bytes()...)
}

// SM2Verifier verifies personal-message signatures against a directory of
// known public keys, keyed by address.
type SM2Verifier struct {
	knownKeys map[string]*sm2.PublicKey
}

// NewSM2Verifier builds a verifier over the given set of known public keys.
func NewSM2Verifier(keys []*sm2.PublicKey) *SM2Verifier {
	v := &SM2Verifier{knownKeys: make(map[string]*sm2.PublicKey, len(keys))}
	for _, k := range keys {
		v.knownKeys[AddressFromPublicKey(k)] = k
	}
	return v
}

// VerifyPersonalMessageSignature implements sealclient.Verifier.
func (v *SM2Verifier) VerifyPersonalMessageSignature(ctx context.Context, message, signature []byte, address string) error {
	pub, ok := v.knownKeys[address]
	if !ok {
		return errors.Errorf("wallet: unknown address %s", address)
	}
	if !pub.Verify(message, signature) {
		return errors.New("wallet: personal message signature verification failed")
	}
	return nil
}
