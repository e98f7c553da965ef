package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature is returned when a webhook signature header fails
// verification for any reason.
var ErrInvalidSignature = errors.New("invalid signature")

// SignatureVerifier checks webhook signature headers of the form
// "t=<unix_ts>,v1=<hex_hmac>" where the HMAC-SHA256 is computed over
// "<ts>.<rawBody>" with the shared secret. Timestamps outside the tolerance
// window are rejected to limit replay.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier creates a verifier with the given shared secret and
// timestamp tolerance.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	return &SignatureVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw request body. It accepts
// the header if any v1 entry matches the expected digest and the timestamp is
// within tolerance.
func (v *SignatureVerifier) Verify(header string, body []byte) error {
	ts, digests, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := computeDigest(v.secret, ts, body)
	for _, d := range digests {
		if hmac.Equal([]byte(d), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: digest mismatch", ErrInvalidSignature)
}

// Sign produces a signature header for the given body and timestamp. Used by
// tests to fabricate valid webhook deliveries.
func Sign(secret string, ts time.Time, body []byte) string {
	digest := computeDigest([]byte(secret), ts.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), digest)
}

func computeDigest(secret []byte, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts int64, digests []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing header", ErrInvalidSignature)
	}

	for _, part := range strings.Split(header, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, fmt.Errorf("%w: malformed header", ErrInvalidSignature)
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
		case "v1":
			digests = append(digests, val)
		}
	}

	if ts == 0 || len(digests) == 0 {
		return 0, nil, fmt.Errorf("%w: missing timestamp or digest", ErrInvalidSignature)
	}

	return ts, digests, nil
}
