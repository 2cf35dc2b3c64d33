package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessExpiryBuffer is subtracted from the access token's expiry so the
// refresh flow runs before the token actually lapses mid-request.
const accessExpiryBuffer = 5 * time.Minute

// decodeClaims parses the token payload without verifying the signature.
// The companion only reads expiry claims; verification is server-side.
func decodeClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsAccessTokenExpired reports whether the access token has expired or is
// inside the refresh buffer. Tokens that cannot be decoded count as
// expired.
func IsAccessTokenExpired(token string) bool {
	claims, err := decodeClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !time.Now().Add(accessExpiryBuffer).Before(claims.ExpiresAt.Time)
}

// IsRefreshTokenExpired is the strict variant used for the refresh token:
// no buffer, expired exactly when exp <= now. Undecodable tokens count as
// expired.
func IsRefreshTokenExpired(token string) bool {
	claims, err := decodeClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !time.Now().Before(claims.ExpiresAt.Time)
}

// TokenExpiration returns the token's decoded expiry. ok is false when the
// token cannot be decoded or carries no expiry.
func TokenExpiration(token string) (time.Time, bool) {
	claims, err := decodeClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
