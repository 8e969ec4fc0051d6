package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/returns/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the caller's role within a store
type Role string

const (
	// RoleCustomer may only open returns against their own orders
	RoleCustomer Role = "customer"
	// RoleStaff operates the return lifecycle for the store
	RoleStaff Role = "staff"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingStoreID   = errors.New("missing store_id in claims")
	ErrMissingSubject   = errors.New("missing subject in claims")
	ErrUnknownRole      = errors.New("unknown role in claims")
)

// Claims carries the store the caller acts in and their role. The
// subject is the actor ID.
type Claims struct {
	jwt.RegisteredClaims
	StoreID string `json:"store_id"`
	Role    Role   `json:"role"`
}

// StoreUUID parses the store claim
func (c *Claims) StoreUUID() (uuid.UUID, error) {
	return uuid.Parse(c.StoreID)
}

// ActorUUID parses the subject claim
func (c *Claims) ActorUUID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HasRole reports whether the caller holds any of the given roles
func (c *Claims) HasRole(roles ...Role) bool {
	return slices.Contains(roles, c.Role)
}

// JWTService validates access tokens issued for the returns API
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueInput describes the token to mint
type IssueInput struct {
	StoreID uuid.UUID
	ActorID uuid.UUID
	Role    Role
}

// IssueAccessToken signs an HS256 token for the given store and actor
func (s *JWTService) IssueAccessToken(in IssueInput) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   in.ActorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		StoreID: in.StoreID.String(),
		Role:    in.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies the signature, issuer and time claims and
// returns the parsed claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.StoreUUID(); err != nil {
		return nil, ErrMissingStoreID
	}
	if _, err := claims.ActorUUID(); err != nil {
		return nil, ErrMissingSubject
	}
	if !claims.HasRole(RoleCustomer, RoleStaff) {
		return nil, ErrUnknownRole
	}
	return claims, nil
}
