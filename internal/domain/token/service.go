package token

import (
	"errors"
	"fmt"
	"time"

	"excelkeeper/internal/domain/credential"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL срок жизни токена.
const DefaultTTL = time.Hour

type Claims struct {
	Role credential.Role `json:"role"`
	jwt.RegisteredClaims
}

type Servicer interface {
	Issue(role credential.Role) (string, error)
	Verify(raw string) (*Claims, error)
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithClock подменяет источник времени для выпуска и проверки.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func NewService(secret string, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue подписывает HS256 токен с ролью, сроком ровно ttl от текущего момента.
func (s *Service) Issue(role credential.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}

	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись, алгоритм и срок без допуска по времени.
func (s *Service) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrMalformed
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, claims.Role)
	}
	return claims, nil
}
