package sealclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/sealerr"
)

// defaultTimeout bounds every individual key-server request unless a
// caller overrides it in Options.
const defaultTimeout = 10 * time.Second

// Options configures a SealClient.
type Options struct {
	LedgerClient LedgerClient
	Transport    KeyServerTransport

	ServerObjectIDs [][32]byte

	// VerifyKeyServers enables proof-of-possession verification when a
	// key server's descriptor is first resolved. Defaults to true.
	VerifyKeyServers *bool

	// TimeoutMs bounds individual key-server requests. Defaults to 10000.
	TimeoutMs uint32
}

// SealClient exclusively owns the resolved KeyServer list, the KeyCache,
// and the in-flight resolution of the former; both are process-lifetime
// and bound to this instance.
type SealClient struct {
	ledger           LedgerClient
	transport        KeyServerTransport
	serverObjectIDs  [][32]byte
	verifyKeyServers bool
	timeout          time.Duration

	cache   *KeyCache
	auth    *AuthSessionStore

	resolveOnce sync.Once
	keyServers  []KeyServer
	resolveErr  error
}

// NewSealClient constructs a client bound to the given ledger/transport
// collaborators and the caller's configured server set.
func NewSealClient(opts Options) *SealClient {
	verify := true
	if opts.VerifyKeyServers != nil {
		verify = *opts.VerifyKeyServers
	}
	timeout := defaultTimeout
	if opts.TimeoutMs != 0 {
		timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}
	return &SealClient{
		ledger:           opts.LedgerClient,
		transport:        opts.Transport,
		serverObjectIDs:  opts.ServerObjectIDs,
		verifyKeyServers: verify,
		timeout:          timeout,
		cache:            NewKeyCache(),
		auth:             NewAuthSessionStore(),
	}
}

// NewSessionKey builds a SessionKey for the given wallet address and
// records it in this client's auth session journal.
func (c *SealClient) NewSessionKey(opts SessionKeyOptions) (*SessionKey, string, error) {
	sk, err := NewSessionKey(opts)
	if err != nil {
		return nil, "", err
	}
	return sk, c.auth.RecordSession(sk), nil
}

// GetAuthSession looks up a session this client previously issued.
func (c *SealClient) GetAuthSession(authSessionID string) (*AuthSessionRecord, bool) {
	return c.auth.GetAuthSession(authSessionID)
}

// ListAuthSessionIDsByAddress lists every session this client has issued
// for the given wallet address.
func (c *SealClient) ListAuthSessionIDsByAddress(address string) []string {
	return c.auth.ListAuthSessionIDsByAddress(address)
}

// keyServerRecord is the client-internal decoding of a ledger object's
// opaque bytes into a KeyServer descriptor. The ledger's own wire format
// is an out-of-scope external contract (spec.md §1); this module only
// needs some stable way to turn GetObject's bytes into a KeyServer, so it
// picks a plain JSON record rather than inventing a BCS-compatible schema
// this module has no authority over.
type keyServerRecord struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	KeyType byte   `json:"keyType"`
	PK      []byte `json:"pk"`
	PoP     []byte `json:"pop"`
}

// DebugKeyServers exposes the resolved key server list read-only, for
// diagnostics tooling (internal/debugserver) - it never triggers a fetch
// or mutates the cache.
func (c *SealClient) DebugKeyServers(ctx context.Context) ([]KeyServer, error) {
	return c.retrieveKeyServers(ctx)
}

// retrieveKeyServers lazily resolves the client's configured server
// object IDs into full KeyServer descriptors, once. Concurrent callers
// share the same in-flight resolution and its result.
func (c *SealClient) retrieveKeyServers(ctx context.Context) ([]KeyServer, error) {
	c.resolveOnce.Do(func() {
		c.keyServers, c.resolveErr = c.resolveKeyServers(ctx)
	})
	return c.keyServers, c.resolveErr
}

func (c *SealClient) resolveKeyServers(ctx context.Context) ([]KeyServer, error) {
	if c.ledger == nil {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "no ledger client configured")
	}
	if len(c.serverObjectIDs) == 0 {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "no server object ids configured")
	}

	servers := make([]KeyServer, 0, len(c.serverObjectIDs))
	for _, objectID := range c.serverObjectIDs {
		raw, err := c.ledger.GetObject(ctx, objectID)
		if err != nil {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "retrieving key server object: "+err.Error())
		}
		var rec keyServerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "decoding key server record: "+err.Error())
		}
		pk, err := curve.G2FromBytes(rec.PK)
		if err != nil {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "invalid key server public key")
		}
		server := KeyServer{ObjectID: objectID, Name: rec.Name, URL: rec.URL, KeyType: KeyType(rec.KeyType), PK: pk}
		if server.KeyType != KeyTypeBonehFranklinBLS12381 {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "unsupported key type")
		}
		if c.verifyKeyServers && !VerifyProofOfPossession(pk, objectID, rec.PoP) {
			return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "proof-of-possession verification failed")
		}
		log.Debugf("sealclient: resolved key server %s (%s)", server.Name, server.URL)
		servers = append(servers, server)
	}
	if len(servers) == 0 {
		return nil, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "key server retrieval returned empty")
	}
	return servers, nil
}
