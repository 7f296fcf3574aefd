package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid_token")

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the two bearer token classes. Access and
// refresh tokens are signed with separate secrets so one class can never
// be replayed as the other.
type Issuer struct {
	Secret        string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (i Issuer) AccessToken(userID string) (string, error) {
	return i.sign(userID, i.Secret, i.AccessTTL)
}

func (i Issuer) RefreshToken(userID string) (string, error) {
	return i.sign(userID, i.RefreshSecret, i.RefreshTTL)
}

func (i Issuer) sign(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verify parses a token against the access secret, or the refresh secret
// when isRefresh is set. Signature failures and expiry both surface as
// ErrInvalidToken.
func (i Issuer) Verify(tokenString string, isRefresh bool) (*Claims, error) {
	secret := i.Secret
	if isRefresh {
		secret = i.RefreshSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
