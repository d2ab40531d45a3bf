package middleware

import (
	"errors"
	"fmt"
	"strings"

	"mpa-platform/session"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned for a well-formed token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// accessClaims is the payload of a platform-issued access token.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks platform access tokens. Tokens are issued by the
// auth platform; this service only verifies them.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *TokenVerifier) Verify(raw string) (session.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.Identity{}, ErrTokenExpired
		}
		return session.Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return session.Identity{}, errors.New("invalid token: missing subject")
	}

	id := session.Identity{UserID: claims.Subject, Email: strings.ToLower(claims.Email)}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
