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

// DecryptOptions configures one Decrypt call.
type DecryptOptions struct {
	Data       []byte
	PTBBytes   []byte
	SessionKey *SessionKey

	// VerifyShareConsistency opts into the supplemental check that every
	// server's released share - not just the ones used to recover the
	// DEM key - lies on the same degree-(threshold-1) polynomial. See
	// SPEC_FULL.md §4.12.
	VerifyShareConsistency bool
}

// Decrypt implements spec.md §4.7.4: parse the envelope, reconcile its
// server list against this client's configured servers, fetch enough
// partial keys to clear the threshold, recover the DEM key, and apply the
// matching DEM variant to the stored ciphertext.
func (c *SealClient) Decrypt(ctx context.Context, opts DecryptOptions) ([]byte, error) {
	obj, err := envelope.Unmarshal(opts.Data)
	if err != nil {
		return nil, err
	}

	servers, err := c.retrieveKeyServers(ctx)
	if err != nil {
		return nil, err
	}
	pkByServer := make(map[[32]byte]ibe.PublicKey, len(servers))
	clientCounts := make(map[[32]byte]int, len(servers))
	for _, s := range servers {
		pkByServer[s.ObjectID] = s.PK
		clientCounts[s.ObjectID]++
	}
	if err := reconcileServers(obj.Services, clientCounts); err != nil {
		return nil, err
	}

	err = c.FetchKeys(ctx, FetchKeysRequest{
		PackageID:  obj.PackageID,
		InnerIDs:   [][]byte{obj.ID},
		PTBBytes:   opts.PTBBytes,
		SessionKey: opts.SessionKey,
		Threshold:  int(obj.Threshold),
	})
	if err != nil {
		return nil, err
	}

	fullID := CreateFullID(obj.PackageID, obj.ID)
	usedShares := make([]sharing.Share, 0, obj.Threshold)
	for i, entry := range obj.Services {
		if len(usedShares) >= int(obj.Threshold) {
			break
		}
		usk, ok := c.cache.Get(fullID, entry.ObjectID)
		if !ok {
			continue
		}
		block := ibe.Decrypt(obj.EncryptedShares.Nonce, usk, obj.EncryptedShares.EncryptedShares[i], []byte{entry.Index})
		usedShares = append(usedShares, sharing.Share{Index: entry.Index, Data: append([]byte(nil), block[:]...)})
	}
	if len(usedShares) < int(obj.Threshold) {
		return nil, &sealerr.InsufficientSharesError{Have: len(usedShares), Need: int(obj.Threshold)}
	}

	demKeyBytes, err := sharing.Combine(usedShares)
	if err != nil {
		return nil, err
	}
	var demKey [dem.KeySize]byte
	copy(demKey[:], demKeyBytes)

	if opts.VerifyShareConsistency {
		if err := verifyShareConsistency(obj, demKey, usedShares, pkByServer); err != nil {
			return nil, err
		}
	}

	dekKey := kdf.DeriveKey(kdf.PurposeDEM, demKey)
	switch obj.Ciphertext.Kind {
	case envelope.CiphertextAes256Gcm:
		return dem.Aes256GcmDecrypt(dekKey, obj.Ciphertext.AesGcm)
	case envelope.CiphertextHmac256Ctr:
		return dem.Hmac256CtrDecrypt(dekKey, obj.Ciphertext.HmacCtr)
	case envelope.CiphertextPlain:
		return dekKey[:], nil
	default:
		return nil, envelope.ErrInvalidCiphertext
	}
}

// reconcileServers rejects an envelope whose service multiset doesn't
// match the client's configured key server multiset exactly - every
// objectId must occur the same number of times on both sides, not merely
// be present. A plain membership check would accept an envelope that
// drops or duplicates a server relative to what this client trusts.
func reconcileServers(services []envelope.KeyServerEntry, clientCounts map[[32]byte]int) error {
	envelopeCounts := make(map[[32]byte]int, len(services))
	for _, s := range services {
		envelopeCounts[s.ObjectID]++
	}
	if len(envelopeCounts) != len(clientCounts) {
		return sealerr.NewUserError(sealerr.CodeInconsistentKeyServers, "envelope's key server set does not match this client's configuration")
	}
	for objectID, count := range clientCounts {
		if envelopeCounts[objectID] != count {
			return sealerr.NewUserError(sealerr.CodeInconsistentKeyServers, "envelope's key server set does not match this client's configuration")
		}
	}
	return nil
}

// verifyShareConsistency recovers the batch's shared randomness from the
// already-recovered DEM key, uses it to decrypt every server's share
// without needing that server's user secret key, and checks all of them
// lie on the polynomial reconstructed from the shares Decrypt actually
// used. A mismatch means some key server released a share inconsistent
// with the rest of the split - undetectable by a bare Combine, which only
// ever looks at the shares it is given.
func verifyShareConsistency(obj *envelope.EncryptedObject, demKey [dem.KeySize]byte, usedShares []sharing.Share, pkByServer map[[32]byte]ibe.PublicKey) error {
	randomnessKey := kdf.DeriveKey(kdf.PurposeEncryptedRandomness, demKey)
	r, err := ibe.DecryptAndVerifyNonce(obj.EncryptedShares.EncryptedRandomness, randomnessKey, obj.EncryptedShares.Nonce)
	if err != nil {
		return sealerr.NewUserError(sealerr.CodeInvalidCiphertext, "batch randomness does not match nonce")
	}

	fullID := CreateFullID(obj.PackageID, obj.ID)
	all := make([]sharing.Share, 0, len(obj.Services))
	for i, entry := range obj.Services {
		pk, ok := pkByServer[entry.ObjectID]
		if !ok {
			continue
		}
		block := ibe.DecryptDeterministic(r, obj.EncryptedShares.EncryptedShares[i], pk, fullID, []byte{entry.Index})
		all = append(all, sharing.Share{Index: entry.Index, Data: append([]byte(nil), block[:]...)})
	}

	polys, err := sharing.ReconstructPolynomials(usedShares)
	if err != nil {
		return err
	}
	if !sharing.VerifyConsistency(polys, all) {
		return sealerr.NewUserError(sealerr.CodeInconsistentKeyServers, "a key server released a share inconsistent with the threshold split")
	}
	return nil
}
