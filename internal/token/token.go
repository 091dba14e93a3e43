package token

import (
	"fmt"
	"time"

	"connexa-backend/internal/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of a session token. There is no revocation
// list; rotating the signing secret invalidates everything outstanding.
const TTL = 7 * 24 * time.Hour

// Role is the platform-wide role carried in the token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role value against the two-value enum.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Identity is the verified claim set of a session token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsPlatformAdmin reports whether the identity bypasses per-event checks.
func (id Identity) IsPlatformAdmin() bool {
	return id.Role == RoleAdmin
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, malformed payload, or past expiry.
var ErrInvalidToken = apperrors.New(apperrors.CodeUnauthorized, "Invalid token")

// Codec issues and verifies session tokens. It is a pure function of
// claims, secret and clock; it holds no request state.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec signing with the given server-held secret.
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token carrying the identity plus issued-at and expiry claims.
func (c *Codec) Issue(id Identity) (string, error) {
	if _, ok := ParseRole(string(id.Role)); !ok {
		return "", fmt.Errorf("invalid role %q", id.Role)
	}
	if id.UserID == "" {
		return "", fmt.Errorf("subject is required")
	}

	issuedAt := c.now()
	claims := sessionClaims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, shape and expiry and returns the identity.
// Verification is all-or-nothing: any failure yields ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (Identity, error) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}

	role, ok := ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
