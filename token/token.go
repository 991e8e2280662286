// Package token signs and verifies the bearer credential carried by the
// counselor session cookie. The token is an HS256 JWT whose only custom
// claim is the session ID. The token itself is never stored; the embedded
// ID is looked up against the session collection on every protected
// request.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretBytes = 32

var (
	// ErrInvalid covers malformed tokens, bad signatures, expired claims,
	// and payloads without a session ID.
	ErrInvalid = errors.New("invalid session token")
)

// Claims is the signed payload: the session identifier plus registered
// claims.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens with a single shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewManager validates the secret and TTL and returns a manager.
func NewManager(secret []byte, ttl time.Duration, issuer string) (*Manager, error) {
	if len(secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Manager{secret: secret, ttl: ttl, issuer: issuer}, nil
}

// Sign mints a token embedding sessionID, expiring after the manager TTL.
// The JWT expiry mirrors the session record's; the record remains the
// authority.
func (m *Manager) Sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrInvalid
	}

	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies signature and registered claims and returns the embedded
// session ID. Any failure, including an empty session ID claim, returns
// [ErrInvalid].
func (m *Manager) Parse(tokenStr string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalid
	}

	return claims.SessionID, nil
}
