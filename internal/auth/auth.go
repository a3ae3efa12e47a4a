// Package auth authenticates API callers. A request is signed with BIP-340
// Schnorr over its method, path, timestamp and body; the caller's identity
// is the hex x-only public key that verifies the signature.
package auth

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	PubKeyHeader    = "X-Custody-Pubkey"
	TimestampHeader = "X-Custody-Timestamp"
	SignatureHeader = "X-Custody-Signature"

	DefaultMaxSkew = 5 * time.Minute

	maxBodyBytes = 1 << 16
)

var requestTag = []byte("custody-engine/request")

var (
	ErrMissingCredentials = errors.New("missing request signature headers")
	ErrInvalidIdentity    = errors.New("invalid caller public key")
	ErrInvalidSignature   = errors.New("invalid request signature")
	ErrStaleRequest       = errors.New("request timestamp outside the accepted window")
	ErrBodyTooLarge       = errors.New("request body too large")
)

type callerKey struct{}

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the identity a Verifier attached to ctx.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok && caller != ""
}

// Identity is the caller id for pub: its x-only serialization in hex.
func Identity(pub *btcec.PublicKey) string {
	return hex.EncodeToString(schnorr.SerializePubKey(pub))
}

// ParseIdentity validates id and returns it in canonical form.
func ParseIdentity(id string) (string, error) {
	pub, err := parsePubKey(id)
	if err != nil {
		return "", err
	}
	return Identity(pub), nil
}

// RequestDigest is the message a caller signs. Fields are newline separated
// and the body enters as its hash, so no two requests share a digest.
func RequestDigest(method, path string, timestamp int64, body []byte) []byte {
	header := fmt.Sprintf("%s\n%s\n%d\n", method, path, timestamp)
	digest := chainhash.TaggedHash(requestTag, []byte(header), chainhash.HashB(body))
	return digest[:]
}

// SignRequest sets the signature headers on req. The body, if any, must be
// set before signing and is left readable.
func SignRequest(req *http.Request, privKey *btcec.PrivateKey, now time.Time) error {
	body, err := readBody(req)
	if err != nil {
		return err
	}

	timestamp := now.Unix()
	sig, err := schnorr.Sign(privKey, RequestDigest(req.Method, req.URL.EscapedPath(), timestamp, body))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(PubKeyHeader, Identity(privKey.PubKey()))
	req.Header.Set(TimestampHeader, strconv.FormatInt(timestamp, 10))
	req.Header.Set(SignatureHeader, hex.EncodeToString(sig.Serialize()))
	return nil
}

type Verifier struct {
	maxSkew time.Duration
	now     func() time.Time
}

func NewVerifier(maxSkew time.Duration, now func() time.Time) *Verifier {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{maxSkew: maxSkew, now: now}
}

// Verify checks the request signature and returns the caller identity. The
// body stays readable for the handler.
func (v *Verifier) Verify(req *http.Request) (string, error) {
	pubKeyHex := req.Header.Get(PubKeyHeader)
	timestampStr := req.Header.Get(TimestampHeader)
	sigHex := req.Header.Get(SignatureHeader)
	if pubKeyHex == "" || timestampStr == "" || sigHex == "" {
		return "", ErrMissingCredentials
	}

	pub, err := parsePubKey(pubKeyHex)
	if err != nil {
		return "", err
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrStaleRequest, timestampStr)
	}
	skew := v.now().Sub(time.Unix(timestamp, 0)).Abs()
	if skew > v.maxSkew {
		return "", fmt.Errorf("%w: off by %s", ErrStaleRequest, skew)
	}

	rawSig, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	body, err := readBody(req)
	if err != nil {
		return "", err
	}
	if !sig.Verify(RequestDigest(req.Method, req.URL.EscapedPath(), timestamp, body), pub) {
		return "", ErrInvalidSignature
	}

	return Identity(pub), nil
}

func parsePubKey(id string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	pub, err := schnorr.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return pub, nil
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
