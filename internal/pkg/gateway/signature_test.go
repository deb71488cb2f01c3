package gateway

import "testing"

func TestVerifySignature_RoundTrip(t *testing.T) {
	payload := []byte(`{"session_id":"cs_123","status":"paid"}`)
	secret := "test-secret"

	sig := GenerateSignature(payload, secret)
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}

	if !VerifySignature(payload, sig, secret) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"session_id":"cs_123"}`)

	sig := GenerateSignature(payload, "secret-a")
	if VerifySignature(payload, sig, "secret-b") {
		t.Fatal("expected verification to fail with different secret")
	}
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	secret := "test-secret"
	sig := GenerateSignature([]byte(`{"amount":100}`), secret)

	if VerifySignature([]byte(`{"amount":999}`), sig, secret) {
		t.Fatal("expected verification to fail for tampered payload")
	}
}

func TestVerifySignature_EmptyInputs(t *testing.T) {
	if VerifySignature([]byte("payload"), "", "secret") {
		t.Fatal("empty signature must not verify")
	}
	if VerifySignature([]byte("payload"), "abcd", "") {
		t.Fatal("empty secret must not verify")
	}
	if VerifySignature([]byte("payload"), "not-hex!", "secret") {
		t.Fatal("non-hex signature must not verify")
	}
}
