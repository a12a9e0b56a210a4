// Package webhook handles identity-provider lifecycle notifications. The
// provider signs deliveries svix-style: an HMAC-SHA256 over
// "<id>.<timestamp>.<payload>" with a shared whsec_ secret, carried in
// space-delimited "v1,<base64>" entries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/yuchialin/expense-claim/internal/common"
)

const secretPrefix = "whsec_"

// Verify checks the delivery signature and timestamp freshness. Any failure
// maps to a 400 at the HTTP layer; the payload must not be processed.
func Verify(secret, msgID, timestamp, sigHeader string, payload []byte, now time.Time, tolerance time.Duration) error {
	if msgID == "" || timestamp == "" || sigHeader == "" {
		return common.ValidationErrorf("missing webhook signature headers")
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return common.ValidationErrorf("malformed signing secret: %v", err)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return common.ValidationErrorf("malformed webhook timestamp: %v", err)
	}
	sent := time.Unix(ts, 0)
	if diff := now.Sub(sent); diff > tolerance || diff < -tolerance {
		return common.ValidationErrorf("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(sigHeader) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return common.ValidationErrorf("webhook signature mismatch")
}

// Sign produces the v1 signature entry for a delivery. Used by tests and by
// local tooling replaying deliveries.
func Sign(secret, msgID, timestamp string, payload []byte) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
