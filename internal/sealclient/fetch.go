package sealclient

import (
	"context"
	"sync"

	"github.com/seal-ibe/seal-go/internal/idutils"
	"github.com/seal-ibe/seal-go/internal/timingutils"
	"github.com/seal-ibe/seal-go/pkg/curve"
	"github.com/seal-ibe/seal-go/pkg/ibe"
	"github.com/seal-ibe/seal-go/pkg/sealerr"
)

// FetchKeysRequest carries everything fetchKeys needs to pursue one batch
// of identities' partial keys across the client's configured key servers.
type FetchKeysRequest struct {
	PackageID  [32]byte
	InnerIDs   [][]byte
	PTBBytes   []byte
	SessionKey *SessionKey
	Threshold  int
}

// PartialKey is one key server's verified extraction of one requested
// identity, ready to feed into a DEM-share decapsulation.
type PartialKey struct {
	ServerObjectID [32]byte
	FullID         []byte
	PK             curve.G2
	USK            curve.G1
}

// FetchKeys resolves the client's key server list and, for every server,
// requests a partial key for every identity in req.InnerIDs in one round
// trip, caching each verified result as it arrives. A server only counts
// toward the threshold once it has returned a verified key for every
// requested identity; a subset still populates the cache but does not
// count as completed. It stops issuing work once threshold servers have
// completed, or once the remaining in-flight requests can no longer reach
// threshold, and surfaces the most commonly observed failure kind if it
// falls short. See DESIGN.md (internal/sealclient) for the concurrency
// pattern this mirrors.
func (c *SealClient) FetchKeys(ctx context.Context, req FetchKeysRequest) error {
	servers, err := c.retrieveKeyServers(ctx)
	if err != nil {
		return err
	}
	if req.Threshold < 1 || req.Threshold > len(servers) {
		return sealerr.NewUserError(sealerr.CodeInvalidThreshold, "threshold out of range for configured key servers")
	}
	if req.SessionKey == nil {
		return sealerr.NewUserError(sealerr.CodeInvalidPersonalMessageSignature, "fetchKeys requires a session key")
	}
	if len(req.InnerIDs) == 0 {
		return sealerr.NewUserError(sealerr.CodeInvalidPackage, "fetchKeys requires at least one id")
	}

	fullIDs := make([][]byte, len(req.InnerIDs))
	for i, id := range req.InnerIDs {
		fullIDs[i] = CreateFullID(req.PackageID, id)
	}

	completed := 0
	remaining := make([]KeyServer, 0, len(servers))
	for _, s := range servers {
		if c.allCached(fullIDs, s.ObjectID) {
			completed++
			continue
		}
		remaining = append(remaining, s)
	}
	if completed >= req.Threshold {
		return nil
	}
	if len(remaining) == 0 {
		return &sealerr.InsufficientSharesError{Have: completed, Need: req.Threshold}
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		fetchCtx, cancelTimeout = context.WithTimeout(fetchCtx, c.timeout)
		defer cancelTimeout()
	}
	defer cancel()

	type outcome struct {
		keys     []PartialKey
		complete bool
		err      error
	}
	outCh := make(chan outcome, len(remaining))
	var wg sync.WaitGroup
	for _, s := range remaining {
		wg.Add(1)
		go func(server KeyServer) {
			defer wg.Done()
			keys, complete, err := c.fetchOne(fetchCtx, server, fullIDs, req)
			select {
			case outCh <- outcome{keys: keys, complete: complete, err: err}:
			case <-ctx.Done():
			}
		}(s)
	}
	go func() {
		wg.Wait()
		close(outCh)
	}()

	var mu sync.Mutex
	var errs []error
	pending := len(remaining)
	for o := range outCh {
		mu.Lock()
		pending--
		if o.err != nil {
			if !isAborted(o.err) {
				errs = append(errs, o.err)
			}
		} else {
			for _, pk := range o.keys {
				c.cache.Put(pk.FullID, pk.ServerObjectID, pk.USK)
			}
			if o.complete {
				completed++
			}
		}
		// Cancel once threshold is already met, or once the remaining
		// in-flight requests, even if every one of them completes, can no
		// longer clear it - there is no point waiting on them either way.
		done := completed >= req.Threshold
		infeasible := pending+completed < req.Threshold
		mu.Unlock()
		if done || infeasible {
			cancel()
		}
	}

	if completed < req.Threshold {
		if len(errs) > 0 {
			return sealerr.MajorityError(errs)
		}
		return &sealerr.InsufficientSharesError{Have: completed, Need: req.Threshold}
	}
	return nil
}

func (c *SealClient) allCached(fullIDs [][]byte, serverObjectID [32]byte) bool {
	for _, fullID := range fullIDs {
		if !c.cache.Has(fullID, serverObjectID) {
			return false
		}
	}
	return true
}

func isAborted(err error) bool {
	te, ok := err.(*sealerr.TransportError)
	return ok && te.Kind == sealerr.TransportAborted
}

// fetchOne requests a partial key for every identity in fullIDs from one
// server in a single round trip, returning every identity it was able to
// verify plus whether every requested identity was matched and verified.
func (c *SealClient) fetchOne(ctx context.Context, server KeyServer, fullIDs [][]byte, req FetchKeysRequest) ([]PartialKey, bool, error) {
	defer timingutils.GetDeferrableTimingLogger("fetchOne " + server.Name)()

	if c.verifyKeyServers {
		svcResp, err := c.transport.Service(ctx, server.URL)
		if err != nil {
			return nil, false, classifyTransportErr(ctx, err)
		}
		if !VerifyProofOfPossession(server.PK, server.ObjectID, svcResp.PoP) {
			return nil, false, sealerr.NewUserError(sealerr.CodeInvalidKeyServer, "stale proof-of-possession from "+server.Name)
		}
	}

	cert, err := req.SessionKey.GetCertificate(ctx)
	if err != nil {
		return nil, false, err
	}
	params, err := req.SessionKey.CreateRequestParams(req.PTBBytes)
	if err != nil {
		return nil, false, err
	}

	requestID, err := idutils.NewRequestID()
	if err != nil {
		return nil, false, err
	}

	resp, err := c.transport.FetchKey(ctx, server.URL, FetchKeyRequest{
		PTB:                req.PTBBytes[1:],
		EncKey:             params.EncKey,
		EncVerificationKey: params.EncVerificationKey,
		RequestSignature:   params.RequestSignature,
		Certificate:        cert,
		RequestID:          requestID,
	})
	if err != nil {
		return nil, false, classifyTransportErr(ctx, err)
	}

	keys := make([]PartialKey, 0, len(fullIDs))
	for _, fullID := range fullIDs {
		entry, ok := findEntry(resp.DecryptionKeys, fullID)
		if !ok {
			continue
		}
		c1, err := curve.G1FromBytes(entry.EncryptedKey[0])
		if err != nil {
			continue
		}
		c2, err := curve.G1FromBytes(entry.EncryptedKey[1])
		if err != nil {
			continue
		}
		usk := ElGamalDecrypt(params.DecryptionKey, ElGamalEncryption{C1: c1, C2: c2})
		if !ibe.VerifyUserSecretKey(usk, fullID, server.PK) {
			continue
		}
		keys = append(keys, PartialKey{ServerObjectID: server.ObjectID, FullID: fullID, PK: server.PK, USK: usk})
	}
	if len(keys) == 0 {
		return nil, false, sealerr.NewUserError(sealerr.CodeInvalidCiphertext, "key server response matched none of the requested identities")
	}
	return keys, len(keys) == len(fullIDs), nil
}

func findEntry(entries []DecryptionKeyEntry, id []byte) (DecryptionKeyEntry, bool) {
	for _, e := range entries {
		if len(e.ID) == len(id) {
			match := true
			for i := range id {
				if e.ID[i] != id[i] {
					match = false
					break
				}
			}
			if match {
				return e, true
			}
		}
	}
	return DecryptionKeyEntry{}, false
}

// classifyTransportErr distinguishes an abort this client itself triggered
// (threshold already met or unreachable) from a genuine network/timeout
// failure, since only the latter belongs in the error budget MajorityError
// draws on.
func classifyTransportErr(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return &sealerr.TransportError{Kind: sealerr.TransportAborted, Cause: err}
	}
	if ctx.Err() == context.DeadlineExceeded {
		return &sealerr.TransportError{Kind: sealerr.TransportTimeout, Cause: err}
	}
	return &sealerr.TransportError{Kind: sealerr.TransportNetwork, Cause: err}
}
