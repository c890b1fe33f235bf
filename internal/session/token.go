package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "inkwell-api"

// ErrInvalidToken covers every reason a token is rejected.
var ErrInvalidToken = errors.New("invalid session token")

// TokenCodec signs and verifies HS256 session tokens. The token's jti is the
// session id and sub the user id.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec returns a codec signing with secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Sign encodes sess as a token expiring with it.
func (c *TokenCodec) Sign(sess *Session) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   strconv.FormatUint(uint64(sess.UserID), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		NotBefore: jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Claims is what a verified token says.
type Claims struct {
	SessionID string
	UserID    uint
}

// Parse verifies signature, issuer and expiry.
func (c *TokenCodec) Parse(raw string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return &Claims{SessionID: claims.ID, UserID: uint(userID)}, nil
}
