package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkruchkov/accountd/internal/models"
)

// ErrInvalidToken covers expired, malformed and tampered tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is what a verified session token carries.
type Claims struct {
	AccountID string
	AuthKey   string
}

// Issuer turns resolved accounts into signed session tokens. The token
// embeds the account's auth key so a key rotation invalidates every
// outstanding session at once.
type Issuer struct {
	secret []byte
}

// NewIssuer creates an Issuer signing with the given HS256 secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue signs a session token for the account with the given time-to-live.
func (i *Issuer) Issue(acct *models.Account, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acct.ID,
		"key": acct.AuthKey,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString(i.secret)
}

// Parse verifies a session token and extracts its claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	key, _ := claims["key"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{AccountID: sub, AuthKey: key}, nil
}
