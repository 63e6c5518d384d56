package auth

import (
	"fmt"
	"time"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/models"

	"github.com/golang-jwt/jwt/v4"
)

// Claims yang disimpan di dalam token: id akun, username, role dan exp.
type Claims struct {
	UserID int    `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue membuat token HS256 untuk akun yang berhasil login.
func (s *TokenService) Issue(acc models.Account) (Token, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := Claims{
		UserID: acc.ID,
		Role:   string(acc.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: signed, TokenType: "bearer", ExpiresAt: expiresAt.UTC()}, nil
}

// Verify parses a bearer token and returns its principal. Every failure is
// reported as Unauthenticated.
func (s *TokenService) Verify(raw string) (authz.Principal, error) {
	var claims Claims
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return authz.Principal{}, apperr.Wrap(apperr.Unauthenticated, err, "Invalid token")
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return authz.Principal{}, apperr.Unauthenticatedf("Token expired")
	}

	role := models.Role(claims.Role)
	if claims.UserID <= 0 || claims.Subject == "" || !role.Valid() {
		return authz.Principal{}, apperr.Unauthenticatedf("Invalid token claims")
	}
	return authz.Principal{AccountID: claims.UserID, Username: claims.Subject, Role: role}, nil
}
