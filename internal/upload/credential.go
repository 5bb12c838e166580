// Package upload verifies the signed credentials issued by the media upload
// pipeline. A credential is an HS256 JWT whose claims carry the stored
// filename and the moderation flag computed at upload time.
package upload

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidCredential = errors.New("invalid upload credential")

// Claims is the payload of an upload credential.
type Claims struct {
	Filename string `json:"filename"`
	Flagged  *bool  `json:"flagged"`
	jwt.RegisteredClaims
}

// Credential is the verified content of an upload token.
type Credential struct {
	Filename string
	Flagged  *bool
}

// Verifier checks upload tokens against a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// Verify validates the signature and expiry of token and returns its payload.
// An empty filename is not an error here; callers decide how to treat it.
func (v *Verifier) Verify(token string) (*Credential, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}
	var claims Claims
	parsed, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	return &Credential{Filename: claims.Filename, Flagged: claims.Flagged}, nil
}

// Issuer mints upload credentials. Production tokens come from the upload
// pipeline; this is used by tooling and tests.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret. A zero ttl means one hour.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed credential for filename.
func (i *Issuer) Issue(filename string, flagged *bool) (string, error) {
	now := i.now()
	claims := Claims{
		Filename: filename,
		Flagged:  flagged,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign upload credential: %w", err)
	}
	return signed, nil
}
