package sealclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/envelope"
	"github.com/seal-ibe/seal-go/pkg/ibe"
)

type fakeServer struct {
	objectID [32]byte
	url      string
	sk       ibe.MasterKey
	pk       ibe.PublicKey
	pop      []byte
}

func newFakeServer(id byte) fakeServer {
	var objectID [32]byte
	objectID[0] = id
	sk, pk := ibe.GenerateKeyPair()

	msg := make([]byte, 0, len(dstPoP)+curve.G2Len()+32)
	msg = append(msg, dstPoP...)
	msg = append(msg, pk.ToBytes()...)
	msg = append(msg, objectID[:]...)
	pop := curve.HashToG1(msg).Mul(sk)

	return fakeServer{objectID: objectID, url: "https://key-server-" + string(rune('a'+id)), sk: sk, pk: pk, pop: pop.ToBytes()}
}

type fakeLedger struct {
	servers map[[32]byte]fakeServer
}

func (l *fakeLedger) GetObject(ctx context.Context, objectID [32]byte) ([]byte, error) {
	s, ok := l.servers[objectID]
	if !ok {
		return nil, assert.AnError
	}
	return json.Marshal(keyServerRecord{Name: s.url, URL: s.url, KeyType: 0, PK: s.pk.ToBytes(), PoP: s.pop})
}

type fakeTransport struct {
	servers   map[string]fakeServer
	packageID [32]byte
	innerID   []byte
}

func (t *fakeTransport) Service(ctx context.Context, url string) (ServiceResponse, error) {
	s := t.servers[url]
	return ServiceResponse{ServiceID: url, PoP: s.pop}, nil
}

func (t *fakeTransport) FetchKey(ctx context.Context, url string, req FetchKeyRequest) (FetchKeyResponse, error) {
	s := t.servers[url]
	fullID := CreateFullID(t.packageID, t.innerID)
	usk := ibe.Extract(s.sk, fullID)
	enc := ElGamalEncrypt(usk, ElGamalPublicKey{pk: req.EncKey})
	return FetchKeyResponse{DecryptionKeys: []DecryptionKeyEntry{
		{ID: fullID, EncryptedKey: [2][]byte{enc.C1.ToBytes(), enc.C2.ToBytes()}},
	}}, nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(ctx context.Context, message []byte) ([]byte, error) {
	return []byte("signature-over:" + string(message)), nil
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyPersonalMessageSignature(ctx context.Context, message, signature []byte, address string) error {
	return nil
}

func setupClient(t *testing.T, n int) (*SealClient, [32]byte, [][32]byte) {
	t.Helper()
	var packageID [32]byte
	packageID[0] = 0xAB

	ledgerServers := make(map[[32]byte]fakeServer, n)
	transportServers := make(map[string]fakeServer, n)
	objectIDs := make([][32]byte, n)
	for i := 0; i < n; i++ {
		s := newFakeServer(byte(i + 1))
		ledgerServers[s.objectID] = s
		transportServers[s.url] = s
		objectIDs[i] = s.objectID
	}

	client := NewSealClient(Options{
		LedgerClient:    &fakeLedger{servers: ledgerServers},
		Transport:       &fakeTransport{servers: transportServers, packageID: packageID, innerID: []byte{1, 2, 3, 4}},
		ServerObjectIDs: objectIDs,
	})
	return client, packageID, objectIDs
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	client, packageID, _ := setupClient(t, 3)
	innerID := []byte{1, 2, 3, 4}
	plaintext := []byte("a message worth splitting across key servers")

	result, err := client.Encrypt(context.Background(), EncryptOptions{
		PackageID: packageID,
		InnerID:   innerID,
		Threshold: 2,
		Plaintext: plaintext,
	})
	require.NoError(t, err)

	sk, err := NewSessionKey(SessionKeyOptions{
		Address:   "alice",
		PackageID: packageID,
		TTLMin:    5,
		Signer:    fakeSigner{},
		Verifier:  fakeVerifier{},
	})
	require.NoError(t, err)

	got, err := client.Decrypt(context.Background(), DecryptOptions{
		Data:                   result.Bytes,
		PTBBytes:               []byte{0, 1, 2, 3},
		SessionKey:             sk,
		VerifyShareConsistency: true,
	})
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptDecryptHmacCtrMode(t *testing.T) {
	client, packageID, _ := setupClient(t, 3)
	innerID := []byte{1, 2, 3, 4}
	plaintext := []byte("ctr-mode payload")

	result, err := client.Encrypt(context.Background(), EncryptOptions{
		PackageID: packageID,
		InnerID:   innerID,
		Threshold: 3,
		Plaintext: plaintext,
		Mode:      envelope.CiphertextHmac256Ctr,
	})
	require.NoError(t, err)

	sk, err := NewSessionKey(SessionKeyOptions{
		Address:   "bob",
		PackageID: packageID,
		TTLMin:    5,
		Signer:    fakeSigner{},
		Verifier:  fakeVerifier{},
	})
	require.NoError(t, err)

	got, err := client.Decrypt(context.Background(), DecryptOptions{
		Data:       result.Bytes,
		PTBBytes:   []byte{0, 9, 9, 9},
		SessionKey: sk,
	})
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestFetchKeysFailsBelowThreshold(t *testing.T) {
	client, packageID, _ := setupClient(t, 1)
	innerID := []byte{1, 2, 3, 4}

	sk, err := NewSessionKey(SessionKeyOptions{
		Address:   "carol",
		PackageID: packageID,
		TTLMin:    5,
		Signer:    fakeSigner{},
		Verifier:  fakeVerifier{},
	})
	require.NoError(t, err)

	err = client.FetchKeys(context.Background(), FetchKeysRequest{
		PackageID:  packageID,
		InnerIDs:   [][]byte{innerID},
		PTBBytes:   []byte{0, 1},
		SessionKey: sk,
		Threshold:  2,
	})
	assert.Error(t, err)
}
