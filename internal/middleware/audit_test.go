package middleware

import (
	"encoding/json"
	"testing"
)

func TestRedactAuditBodyAdmin(t *testing.T) {
	body := []byte(`{"asset":"0xab","admin_key":"k1","nested":{"api_key":"k","api_secret":"s","api_passphrase":"p"}}`)
	out := redactAuditBody("/v1/admin/exchange", body)

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if data["admin_key"] == "k1" {
		t.Fatalf("admin key not redacted")
	}
	if nested, ok := data["nested"].(map[string]interface{}); ok {
		if nested["api_key"] == "k" || nested["api_secret"] == "s" || nested["api_passphrase"] == "p" {
			t.Fatalf("nested creds not redacted")
		}
	}
}

func TestRedactAuditBodyNonSensitivePath(t *testing.T) {
	body := []byte(`{"ok":true}`)
	out := redactAuditBody("/health", body)
	if out != string(body) {
		t.Fatalf("unexpected redaction on non-sensitive path")
	}
}

func TestRedactAuditBodyInvalidJSON(t *testing.T) {
	body := []byte("not-json")
	out := redactAuditBody("/v1/admin/exchange", body)
	if out != "[redacted]" {
		t.Fatalf("expected redacted placeholder for invalid json")
	}
}
