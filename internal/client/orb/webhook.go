package orb

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// SignatureHeader carries one or more "v1=<hex>" signatures.
	SignatureHeader = "X-Orb-Signature"
	// TimestampHeader carries the RFC 3339 time the signature was computed over.
	TimestampHeader = "X-Orb-Timestamp"

	signaturePrefix = "v1="

	// maxTimestampSkew bounds how far the signature timestamp may deviate from
	// the local clock, limiting replay of captured deliveries.
	maxTimestampSkew = 5 * time.Minute
)

var (
	// ErrMissingSignature indicates the signature or timestamp header is absent.
	ErrMissingSignature = errors.New("missing webhook signature headers")
	// ErrSignatureMismatch indicates no provided signature matched the payload.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// VerifySignature checks the HMAC-SHA256 signature Orb computes over
// "v1:<timestamp>:<payload>" against the shared secret. Multiple signatures
// in the header are accepted if any one matches, which is how Orb handles
// secret rotation.
func VerifySignature(payload []byte, headers http.Header, secret string) error {
	timestamp := headers.Get(TimestampHeader)
	signatures := headers.Get(SignatureHeader)
	if timestamp == "" || signatures == "" {
		return ErrMissingSignature
	}

	signedAt, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp %q: %w", timestamp, err)
	}
	if skew := time.Since(signedAt); skew > maxTimestampSkew || skew < -maxTimestampSkew {
		return fmt.Errorf("webhook timestamp outside tolerance: %s", timestamp)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v1:" + timestamp + ":"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, part := range strings.Split(signatures, ",") {
		value, ok := strings.CutPrefix(strings.TrimSpace(part), signaturePrefix)
		if !ok {
			continue
		}
		if hmac.Equal([]byte(value), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// VerifyWebhookSignature verifies a webhook delivery against the client's
// configured webhook secret.
func (c *Client) VerifyWebhookSignature(payload []byte, headers http.Header) error {
	if c.webhookSecret == "" {
		return errors.New("orb client has no webhook secret configured")
	}
	return VerifySignature(payload, headers, c.webhookSecret)
}
