package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func signPayload(t *testing.T, secret, msgID, timestamp string, body []byte) string {
	t.Helper()

	key, err := base64.StdEncoding.DecodeString(secret[len("whsec_"):])
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func testHandler(now time.Time) *WebhookHandler {
	return &WebhookHandler{
		secret:    testSecret,
		tolerance: 5 * time.Minute,
		now:       func() time.Time { return now },
	}
}

func signedHeaders(t *testing.T, timestamp string, body []byte) http.Header {
	t.Helper()

	header := http.Header{}
	header.Set("svix-id", "msg_2KWPBKaMkSlpjWGXSaOWSGXpUDV")
	header.Set("svix-timestamp", timestamp)
	header.Set("svix-signature", signPayload(t, testSecret, "msg_2KWPBKaMkSlpjWGXSaOWSGXpUDV", timestamp, body))
	return header
}

func TestVerifySignature(t *testing.T) {
	now := time.Now()
	h := testHandler(now)
	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	if err := h.verifySignature(signedHeaders(t, timestamp, body), body); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	now := time.Now()
	h := testHandler(now)
	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	header := signedHeaders(t, timestamp, body)

	tampered := []byte(`{"type":"user.created","data":{"id":"user_evil"}}`)
	if err := h.verifySignature(header, tampered); err == nil {
		t.Error("tampered body accepted")
	}
}

func TestVerifySignatureTimestampTolerance(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)

	tests := []struct {
		name string
		skew time.Duration
		ok   bool
	}{
		{"recent", -time.Minute, true},
		{"slightly ahead", time.Minute, true},
		{"too old", -10 * time.Minute, false},
		{"too far ahead", 10 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(now)
			timestamp := strconv.FormatInt(now.Add(tt.skew).Unix(), 10)
			err := h.verifySignature(signedHeaders(t, timestamp, body), body)
			if tt.ok && err != nil {
				t.Errorf("expected acceptance, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected rejection")
			}
		})
	}
}

func TestVerifySignatureMissingHeaders(t *testing.T) {
	h := testHandler(time.Now())
	body := []byte(`{}`)

	if err := h.verifySignature(http.Header{}, body); err == nil {
		t.Error("expected rejection with no signature headers")
	}
}

func TestVerifySignatureUnknownVersion(t *testing.T) {
	now := time.Now()
	h := testHandler(now)
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	header := signedHeaders(t, timestamp, body)
	sig := header.Get("svix-signature")
	header.Set("svix-signature", "v2"+sig[len("v1"):])

	if err := h.verifySignature(header, body); err == nil {
		t.Error("unknown signature version accepted")
	}
}

func TestVerifySignatureMultipleVersions(t *testing.T) {
	now := time.Now()
	h := testHandler(now)
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	header := signedHeaders(t, timestamp, body)
	valid := header.Get("svix-signature")
	header.Set("svix-signature", fmt.Sprintf("v2,bogus %s", valid))

	if err := h.verifySignature(header, body); err != nil {
		t.Errorf("valid signature among several rejected: %v", err)
	}
}
