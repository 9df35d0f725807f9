package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature   = errors.New("signature header missing")
	ErrMalformedSignature = errors.New("signature header malformed")
	ErrSignatureMismatch  = errors.New("signature verification failed")
	ErrSignatureExpired   = errors.New("signature timestamp outside tolerance")
)

// DefaultSignatureTolerance bounds acceptable clock skew on webhook events
const DefaultSignatureTolerance = 5 * time.Minute

var timeNow = time.Now

// VerifySignature checks a Stripe-style webhook signature header
// ("t=<unix>,v1=<hex hmac>") against the raw request body. The signed
// payload is "<t>.<body>" under HMAC-SHA256 with the shared secret. Any
// matching v1 entry within the timestamp tolerance passes.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	if header == "" {
		return ErrMissingSignature
	}

	var timestamp int64 = -1
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrMalformedSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return ErrMalformedSignature
	}

	age := timeNow().Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// SignPayload produces a signature header for a payload, used by tests and
// local tooling to emit verifiable events.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
