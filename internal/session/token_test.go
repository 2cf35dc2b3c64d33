package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestIsAccessTokenExpired(t *testing.T) {
	if IsAccessTokenExpired(signedToken(t, time.Now().Add(10*time.Minute))) {
		t.Fatal("token with 10m left should not be expired")
	}
	if !IsAccessTokenExpired(signedToken(t, time.Now().Add(4*time.Minute))) {
		t.Fatal("token with 4m left is inside the refresh buffer")
	}
	if !IsAccessTokenExpired(signedToken(t, time.Now().Add(-time.Second))) {
		t.Fatal("past token should be expired")
	}
}

func TestIsRefreshTokenExpired(t *testing.T) {
	// No buffer on the refresh side: 4 minutes left is still valid.
	if IsRefreshTokenExpired(signedToken(t, time.Now().Add(4*time.Minute))) {
		t.Fatal("refresh token with 4m left should not be expired")
	}
	if !IsRefreshTokenExpired(signedToken(t, time.Now().Add(-time.Second))) {
		t.Fatal("past refresh token should be expired")
	}
}

func TestMalformedTokensCountAsExpired(t *testing.T) {
	for _, token := range []string{
		"",
		"not-a-token",
		"only.two",
		"a.!!!notbase64!!!.c",
		"a." + "bm90LWpzb24" + ".c", // payload decodes but is not JSON
	} {
		if !IsAccessTokenExpired(token) {
			t.Fatalf("access predicate should fail safe for %q", token)
		}
		if !IsRefreshTokenExpired(token) {
			t.Fatalf("refresh predicate should fail safe for %q", token)
		}
		if _, ok := TokenExpiration(token); ok {
			t.Fatalf("expected no expiration for %q", token)
		}
	}
}

func TestTokenExpiration(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := TokenExpiration(signedToken(t, exp))
	if !ok {
		t.Fatal("expected expiration")
	}
	if !got.Equal(exp) {
		t.Fatalf("expected %v, got %v", exp, got)
	}
}

func TestTokenWithoutExpCountsAsExpired(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if !IsAccessTokenExpired(token) || !IsRefreshTokenExpired(token) {
		t.Fatal("token without exp should count as expired")
	}
	if _, ok := TokenExpiration(token); ok {
		t.Fatal("expected no expiration")
	}
}
