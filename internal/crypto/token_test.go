package crypto

import "testing"

func TestVerificationTokenDigest(t *testing.T) {
	token, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}

	digest := HashToken(token)
	if digest == token {
		t.Fatalf("digest must differ from raw token")
	}
	if digest != HashToken(token) {
		t.Fatalf("digest must be deterministic")
	}

	other, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if other == token {
		t.Fatalf("tokens must be unique")
	}
}
