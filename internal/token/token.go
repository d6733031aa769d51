package token

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"realsociety/internal/domain"
)

const (
	defaultIssuerName = "realsociety"
	defaultTTL        = 7 * 24 * time.Hour
)

var defaultLeeway = 30 * time.Second

// ErrInvalidToken covers malformed tokens, bad signatures and expired claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID uint
	Email  string
	Role   domain.UserRole
}

type tokenClaims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

// NewIssuer builds a token issuer from the signing secret. A zero ttl falls
// back to seven days.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token signing secret required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: defaultLeeway,
	}, nil
}

// Issue signs a token encoding the user's id, email and role.
func (i *Issuer) Issue(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuerName,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses a token and returns its claims. Any signature, format or
// expiry failure maps to ErrInvalidToken.
func (i *Issuer) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(defaultIssuerName),
		jwt.WithLeeway(i.leeway),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}
	role := domain.UserRole(claims.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
