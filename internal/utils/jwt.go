package utils // package utils provides helpers for token issuance and password hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningKeyMissing is returned by Issue when no secret is configured.
	ErrSigningKeyMissing = errors.New("token signing key is not configured")
	// ErrInvalidToken is the only error Verify returns. Malformed, forged and
	// expired tokens are deliberately indistinguishable to callers.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims embeds the registered claims and carries the user id both as the
// subject and as a numeric userId claim.
type Claims struct {
	UserID uint64 `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 identity tokens with a process-wide
// secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for the given secret and lifetime. An
// empty secret yields an issuer that refuses to issue and rejects everything.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer using now as its time source.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Ready reports whether the issuer can sign tokens.
func (t *TokenIssuer) Ready() bool { return len(t.secret) > 0 }

// Issue signs a token for userID expiring after the configured TTL.
func (t *TokenIssuer) Issue(userID uint64) (AccessToken, error) {
	if !t.Ready() {
		return AccessToken{}, ErrSigningKeyMissing
	}
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded
// user id.
func (t *TokenIssuer) Verify(raw string) (uint64, error) {
	if !t.Ready() || raw == "" {
		return 0, ErrInvalidToken
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.Subject != strconv.FormatUint(claims.UserID, 10) {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
