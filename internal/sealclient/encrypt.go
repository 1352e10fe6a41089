package sealclient

import (
	"context"

	"github.com/seal-ibe/seal-go/pkg/dem"
	"github.com/seal-ibe/seal-go/pkg/envelope"
	"github.com/seal-ibe/seal-go/pkg/ibe"
	"github.com/seal-ibe/seal-go/pkg/kdf"
	"github.com/seal-ibe/seal-go/pkg/sealerr"
	"github.com/seal-ibe/seal-go/pkg/sharing"
)

// EncryptOptions configures one Encrypt call.
type EncryptOptions struct {
	PackageID [32]byte
	InnerID   []byte
	Threshold int
	Plaintext []byte
	AAD       []byte
	// Mode selects the DEM variant; zero value is CiphertextAes256Gcm.
	Mode envelope.CiphertextKind
}

// EncryptResult is the output of a successful Encrypt call.
type EncryptResult struct {
	Envelope *envelope.EncryptedObject
	Bytes    []byte
	Key      [dem.KeySize]byte
}

// Encrypt implements spec.md §4.7.3: draw a fresh DEM key, split it t-of-n
// across the client's resolved key servers, IBE-encrypt every share under
// its own server's public key with one shared batch randomness, apply the
// requested DEM variant to the plaintext, and assemble the wire envelope.
func (c *SealClient) Encrypt(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	servers, err := c.retrieveKeyServers(ctx)
	if err != nil {
		return nil, err
	}
	n := len(servers)
	if opts.Threshold < 1 || opts.Threshold > n {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidThreshold, "threshold out of range for configured key servers")
	}

	demKey, err := dem.GenerateKey()
	if err != nil {
		return nil, err
	}
	shares, err := sharing.Split(demKey[:], n, opts.Threshold)
	if err != nil {
		return nil, err
	}

	fullID := CreateFullID(opts.PackageID, opts.InnerID)

	pks := make([]ibe.PublicKey, n)
	messages := make([]ibe.Message, n)
	services := make([]envelope.KeyServerEntry, n)
	for i, s := range servers {
		pks[i] = s.PK
		var block [dem.KeySize]byte
		copy(block[:], shares[i].Data)
		messages[i] = ibe.Message{Plaintext: block, Info: []byte{shares[i].Index}}
		services[i] = envelope.KeyServerEntry{ObjectID: s.ObjectID, Index: shares[i].Index}
	}

	randomnessKey := kdf.DeriveKey(kdf.PurposeEncryptedRandomness, demKey)
	batched, err := ibe.EncryptBatched(pks, fullID, messages, randomnessKey)
	if err != nil {
		return nil, err
	}

	dekKey := kdf.DeriveKey(kdf.PurposeDEM, demKey)
	ct, err := applyDEM(opts.Mode, dekKey, opts.Plaintext, opts.AAD)
	if err != nil {
		return nil, err
	}

	obj := &envelope.EncryptedObject{
		PackageID: opts.PackageID,
		ID:        opts.InnerID,
		Services:  services,
		Threshold: byte(opts.Threshold),
		EncryptedShares: envelope.IBEEncryptedShares{
			Nonce:               batched.Nonce,
			EncryptedShares:     batched.EncryptedShares,
			EncryptedRandomness: batched.EncryptedRandomness,
		},
		Ciphertext: ct,
	}
	raw, err := obj.Marshal()
	if err != nil {
		return nil, err
	}

	return &EncryptResult{Envelope: obj, Bytes: raw, Key: dekKey}, nil
}

func applyDEM(mode envelope.CiphertextKind, key [dem.KeySize]byte, plaintext, aad []byte) (envelope.Ciphertext, error) {
	switch mode {
	case envelope.CiphertextHmac256Ctr:
		return envelope.Ciphertext{Kind: envelope.CiphertextHmac256Ctr, HmacCtr: dem.Hmac256CtrEncrypt(key, plaintext, aad)}, nil
	case envelope.CiphertextPlain:
		return envelope.Ciphertext{Kind: envelope.CiphertextPlain}, nil
	case envelope.CiphertextAes256Gcm:
		aesCT, err := dem.Aes256GcmEncrypt(key, plaintext, aad)
		if err != nil {
			return envelope.Ciphertext{}, err
		}
		return envelope.Ciphertext{Kind: envelope.CiphertextAes256Gcm, AesGcm: aesCT}, nil
	default:
		return envelope.Ciphertext{}, sealerr.NewUserError(sealerr.CodeUnsupportedFeature, "unknown ciphertext mode")
	}
}
