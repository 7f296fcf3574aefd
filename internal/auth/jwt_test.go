package auth

import (
	"testing"
	"time"
)

func testIssuer() Issuer {
	return Issuer{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "test-issuer",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()

	token, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := issuer.Verify(token, false)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenUsesSeparateSecret(t *testing.T) {
	issuer := testIssuer()

	refresh, err := issuer.RefreshToken("user-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if _, err := issuer.Verify(refresh, true); err != nil {
		t.Fatalf("refresh verify error: %v", err)
	}
	if _, err := issuer.Verify(refresh, false); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}

	access, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := issuer.Verify(access, true); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := testIssuer()
	issuer.AccessTTL = -time.Minute

	token, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := issuer.Verify(token, false); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	issuer := testIssuer()

	token, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := issuer.Verify(token+"x", false); err == nil {
		t.Fatalf("expected tampered token to fail verification")
	}
}
