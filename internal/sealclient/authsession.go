// AuthSession tracking is this client's local audit trail of session-key
// issuance: every SessionKey created through SealClient.NewSessionKey gets
// a record here when it is created,
// so a caller embedding this library can answer "which sessions are live
// for this address" without re-deriving it from wallet signatures. It
// generalizes the teacher's AuthService session-lookup idiom (see
// internal/service/auth_service.go's GetAuthSession/
// ListAuthSessionIDsByRequestor) from a ledger-backed access-request
// workflow to this module's in-process session-key lifecycle - there is no
// approval step here, only issuance and expiry.
package sealclient

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// AuthSessionStatus reports where a recorded session currently stands.
type AuthSessionStatus int

const (
	AuthSessionActive AuthSessionStatus = iota
	AuthSessionExpired
)

func (s AuthSessionStatus) String() string {
	if s == AuthSessionActive {
		return "active"
	}
	return "expired"
}

// AuthSessionRecord is one SessionKey's audit entry.
type AuthSessionRecord struct {
	AuthSessionID string
	Address       string
	PackageID     [32]byte
	CreationTime  time.Time
	TTLMin        int

	sessionKey *SessionKey
}

// Status derives the record's current status from its SessionKey's live
// expiry check rather than caching a value that would go stale.
func (r *AuthSessionRecord) Status() AuthSessionStatus {
	if r.sessionKey != nil && r.sessionKey.IsExpired() {
		return AuthSessionExpired
	}
	return AuthSessionActive
}

// AuthSessionStore is this client's in-process session-key journal, safe
// for concurrent use across goroutines issuing and inspecting sessions.
type AuthSessionStore struct {
	mu      sync.RWMutex
	records map[string]*AuthSessionRecord
	byAddr  map[string][]string
}

// NewAuthSessionStore returns an empty store.
func NewAuthSessionStore() *AuthSessionStore {
	return &AuthSessionStore{
		records: make(map[string]*AuthSessionRecord),
		byAddr:  make(map[string][]string),
	}
}

// RecordSession journals a newly created SessionKey and returns the
// auth session ID a caller can look it up by later.
func (st *AuthSessionStore) RecordSession(sk *SessionKey) string {
	id := newAuthSessionID()
	rec := &AuthSessionRecord{
		AuthSessionID: id,
		Address:       sk.Address(),
		PackageID:     sk.PackageID(),
		sessionKey:    sk,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	sk.mu.Lock()
	rec.CreationTime = sk.creationTime
	rec.TTLMin = sk.ttlMin
	sk.mu.Unlock()

	st.records[id] = rec
	st.byAddr[rec.Address] = append(st.byAddr[rec.Address], id)
	return id
}

// GetAuthSession looks up a previously recorded session by its ID.
func (st *AuthSessionStore) GetAuthSession(authSessionID string) (*AuthSessionRecord, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	rec, ok := st.records[authSessionID]
	return rec, ok
}

// ListAuthSessionIDsByAddress returns every session ID recorded for the
// given wallet address, oldest first.
func (st *AuthSessionStore) ListAuthSessionIDsByAddress(address string) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := st.byAddr[address]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func newAuthSessionID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
