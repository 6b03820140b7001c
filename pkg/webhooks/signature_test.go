package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSign(t *testing.T) {
	payload := []byte(`{"event":"entity.created"}`)
	secret := "s3cr3t"

	signature := Sign(payload, secret)

	if !strings.HasPrefix(signature, "sha256=") {
		t.Errorf("Expected sha256= prefix, got %q", signature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if signature != want {
		t.Errorf("Expected signature %q, got %q", want, signature)
	}
}

func TestVerifySignature(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		payload := []byte(`{"event":"entity.created","data":{"id":"e1"}}`)
		signature := Sign(payload, "secret")

		if !VerifySignature(payload, signature, "secret") {
			t.Error("Expected signature verification to succeed")
		}
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		payload := []byte(`{"event":"entity.created"}`)
		signature := Sign(payload, "secret")

		if VerifySignature(payload, signature, "wrong-secret") {
			t.Error("Expected signature verification to fail with wrong secret")
		}
	})

	t.Run("tampered payload fails", func(t *testing.T) {
		signature := Sign([]byte(`{"a":1}`), "secret")

		if VerifySignature([]byte(`{"a":2}`), signature, "secret") {
			t.Error("Expected signature verification to fail for tampered payload")
		}
	})

	t.Run("unicode and nested payloads", func(t *testing.T) {
		payload := []byte(`{"event":"entity.updated","data":{"name":"café ☕","nested":{"キー":"値"}}}`)
		signature := Sign(payload, "秘密")

		if !VerifySignature(payload, signature, "秘密") {
			t.Error("Expected signature verification to succeed for unicode payload")
		}
	})
}
