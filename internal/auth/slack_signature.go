package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	SlackSignatureHeader = "X-Slack-Signature"
	SlackTimestampHeader = "X-Slack-Request-Timestamp"
)

var (
	ErrMissingSlackSignature = errors.New("missing slack signature")
	ErrInvalidSlackSignature = errors.New("invalid slack signature")
	ErrStaleSlackTimestamp   = errors.New("stale slack timestamp")
)

const slackMaxSkew = 5 * time.Minute

// VerifySlackSignature validates a chat platform request against the signing secret.
func VerifySlackSignature(signingSecret, signature, timestamp string, body []byte, now time.Time) error {
	if signature == "" || timestamp == "" {
		return ErrMissingSlackSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSlackSignature
	}

	requestTime := time.Unix(ts, 0)
	if now.Sub(requestTime) > slackMaxSkew || requestTime.Sub(now) > slackMaxSkew {
		return ErrStaleSlackTimestamp
	}

	if !hmac.Equal([]byte(SlackSignatureFor(signingSecret, timestamp, body)), []byte(signature)) {
		return ErrInvalidSlackSignature
	}
	return nil
}

// SlackSignatureFor computes the v0 signature for a request.
func SlackSignatureFor(signingSecret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	_, _ = mac.Write([]byte("v0:" + timestamp + ":"))
	_, _ = mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
