// Package keyserverhttp supplies the default sealclient.KeyServerTransport:
// a plain net/http client calling a key server's GET /v1/service endpoint
// and POSTing JSON bodies to its /v1/fetch_key endpoint, translating
// non-2xx responses into the sealerr taxonomy's ServerError.
package keyserverhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/seal-ibe/seal-go/internal/sealclient"
	"github.com/seal-ibe/seal-go/pkg/sealerr"
)

// Client is the default HTTP-backed KeyServerTransport.
type Client struct {
	HTTP *http.Client
}

// NewClient builds a transport with a sane default per-call timeout; the
// orchestrator in internal/sealclient layers its own context deadline on
// top, so this one only guards against a hung TCP connection.
func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

type serviceResponseWire struct {
	ServiceID string `json:"service_id"`
	PoP       string `json:"pop"`
}

// Service implements sealclient.KeyServerTransport.
func (c *Client) Service(ctx context.Context, url string) (sealclient.ServiceResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/service", nil)
	if err != nil {
		return sealclient.ServiceResponse{}, errors.Wrap(err, "keyserverhttp: building service request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return sealclient.ServiceResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return sealclient.ServiceResponse{}, decodeServerError(resp)
	}
	var wire serviceResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return sealclient.ServiceResponse{}, errors.Wrap(err, "keyserverhttp: decoding service response")
	}
	pop, err := base64.StdEncoding.DecodeString(wire.PoP)
	if err != nil {
		return sealclient.ServiceResponse{}, errors.Wrap(err, "keyserverhttp: decoding pop")
	}
	return sealclient.ServiceResponse{ServiceID: wire.ServiceID, PoP: pop}, nil
}

type certificateWire struct {
	User             string `json:"user"`
	SessionVK        string `json:"session_vk"`
	CreationTime     int64  `json:"creation_time"`
	TTLMin           int    `json:"ttl_min"`
	Signature        string `json:"signature"`
}

type fetchKeyRequestWire struct {
	PTB                string           `json:"ptb"`
	EncKey             string           `json:"enc_key"`
	EncVerificationKey string           `json:"enc_verification_key"`
	RequestSignature   string           `json:"request_signature"`
	Certificate        *certificateWire `json:"certificate,omitempty"`
	RequestID          string           `json:"request_id"`
}

type decryptionKeyEntryWire struct {
	ID           string   `json:"id"`
	EncryptedKey []string `json:"encrypted_key"`
}

type fetchKeyResponseWire struct {
	DecryptionKeys []decryptionKeyEntryWire `json:"decryption_keys"`
}

// FetchKey implements sealclient.KeyServerTransport.
func (c *Client) FetchKey(ctx context.Context, url string, fkr sealclient.FetchKeyRequest) (sealclient.FetchKeyResponse, error) {
	wire := fetchKeyRequestWire{
		PTB:                base64.StdEncoding.EncodeToString(fkr.PTB),
		EncKey:             base64.StdEncoding.EncodeToString(fkr.EncKey.ToBytes()),
		EncVerificationKey: base64.StdEncoding.EncodeToString(fkr.EncVerificationKey.ToBytes()),
		RequestSignature:   base64.StdEncoding.EncodeToString(fkr.RequestSignature),
		RequestID:          fkr.RequestID,
	}
	if fkr.Certificate != nil {
		wire.Certificate = &certificateWire{
			User:         fkr.Certificate.User,
			SessionVK:    fkr.Certificate.SessionVerifyKey,
			CreationTime: fkr.Certificate.CreationTime.UnixMilli(),
			TTLMin:       fkr.Certificate.TTLMin,
			Signature:    fkr.Certificate.Signature,
		}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return sealclient.FetchKeyResponse{}, errors.Wrap(err, "keyserverhttp: encoding fetch_key request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/v1/fetch_key", bytes.NewReader(body))
	if err != nil {
		return sealclient.FetchKeyResponse{}, errors.Wrap(err, "keyserverhttp: building fetch_key request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Request-Id", fkr.RequestID)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return sealclient.FetchKeyResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return sealclient.FetchKeyResponse{}, decodeServerError(resp)
	}

	var respWire fetchKeyResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&respWire); err != nil {
		return sealclient.FetchKeyResponse{}, errors.Wrap(err, "keyserverhttp: decoding fetch_key response")
	}

	out := sealclient.FetchKeyResponse{DecryptionKeys: make([]sealclient.DecryptionKeyEntry, len(respWire.DecryptionKeys))}
	for i, e := range respWire.DecryptionKeys {
		id, err := hex.DecodeString(e.ID)
		if err != nil {
			return sealclient.FetchKeyResponse{}, errors.Wrap(err, "keyserverhttp: decoding decryption key id")
		}
		if len(e.EncryptedKey) != 2 {
			return sealclient.FetchKeyResponse{}, errors.New("keyserverhttp: malformed encrypted_key pair")
		}
		var pair [2][]byte
		for j, b64 := range e.EncryptedKey {
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return sealclient.FetchKeyResponse{}, errors.Wrap(err, "keyserverhttp: decoding encrypted_key")
			}
			pair[j] = raw
		}
		out.DecryptionKeys[i] = sealclient.DecryptionKeyEntry{ID: id, EncryptedKey: pair}
	}
	return out, nil
}

type serverErrorWire struct {
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func decodeServerError(resp *http.Response) error {
	var wire serverErrorWire
	_ = json.NewDecoder(resp.Body).Decode(&wire)
	if wire.Code == "" {
		wire.Code = sealerr.CodeGeneralError
	}
	return &sealerr.ServerError{Code: wire.Code, HTTPStatus: resp.StatusCode, RequestID: wire.RequestID}
}
