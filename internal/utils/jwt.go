package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA‑256 hashing for stored session tokens
	"encoding/hex"  // hex encoding of the digest
	"errors"
	"fmt"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
	"github.com/google/uuid"       // unique token ids
)

// SessionToken is a signed bearer token bound to one login session.  Token
// holds the serialized JWT handed to the client; only its hash is stored.
type SessionToken struct {
	Token string    // the serialized JWT string
	ID    string    // jti claim, unique per login
	Exp   time.Time // the UTC expiration time
}

// SessionClaims are the claims read back from a verified token.
type SessionClaims struct {
	AccountID string
	Role      string
	ID        string
	ExpiresAt time.Time
}

// ErrTokenInvalid is returned for any token that fails verification:
// wrong signature or algorithm, malformed structure, missing subject or
// past expiry.
var ErrTokenInvalid = errors.New("invalid token")

// NewSessionToken builds and signs an HS256 JWT for an account.  The
// claims carry the subject (account id), role, a random jti so two
// logins never produce the same token, issued at and expiration.
func NewSessionToken(secret, accountID, role string, ttl time.Duration, now time.Time) (SessionToken, error) {
	exp := now.UTC().Add(ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  accountID,
		"role": role,
		"jti":  jti,
		"exp":  exp.Unix(),
		"iat":  now.UTC().Unix(),
	}
	// Sign with HS256; other algorithms are rejected when parsing.
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseSessionToken verifies raw against secret and returns its claims.
// Every failure is reported as ErrTokenInvalid wrapping the cause.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	out := &SessionClaims{AccountID: sub, Role: role, ID: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// HashToken returns the SHA‑256 hash of a bearer token as a hex string.
// Storing only the hash prevents a leaked sessions table from being
// replayed as credentials.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
