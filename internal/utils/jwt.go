package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors" // sentinel errors for token verification
	"fmt"    // error wrapping
	"time"   // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing tokens

	"github.com/iliyamo/excellense/internal/model" // user and role types
)

// TokenTTL is the fixed lifetime of a session token.  There is no
// refresh flow: clients log in again once a token expires.
const TokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired is returned by Verify when the token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, unexpected algorithms,
	// malformed tokens and unknown roles.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload carried by a session token.
type Claims struct {
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed session token along with its expiry.
type Token struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenIssuer signs and verifies HS256 session tokens with a single
// server secret.  It is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer that signs with secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue builds and signs a token for u.  The token carries the user's
// id and role and expires TokenTTL after issuance.
func (ti *TokenIssuer) Issue(u model.User) (Token, error) {
	now := ti.now().UTC()
	exp := now.Add(TokenTTL)
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: signed, Exp: exp}, nil
}

// Verify parses raw, checks its signature and expiry and returns the
// decoded claims.  Failures are reported as ErrTokenExpired or
// ErrTokenInvalid so callers can pick a message without inspecting jwt
// library errors.
func (ti *TokenIssuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that isn't HMAC so a token can't pick its own algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tok.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	if _, err := model.ParseRole(claims.Role); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}
