package service

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tinselhq/tinsel/internal/config"
)

var (
	// ErrInvalidCredentials is returned for a wrong password. Callers report
	// it as a generic unauthorized result without further detail.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired is returned when a well-formed, correctly signed token
	// is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad signature,
	// malformed structure, wrong signing method.
	ErrTokenInvalid = errors.New("token invalid")
)

// The service knows exactly one identity. There are no user accounts.
const (
	TokenSubject = "admin"
	TokenRole    = "admin"
	tokenIssuer  = "tinsel"
)

// Claims is the session token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService verifies the shared access password and the static API key, and
// issues and verifies signed session tokens. It holds no per-session state;
// verification is purely stateless.
type AuthService struct {
	accessPassword []byte
	jwtSecret      []byte
	apiKey         []byte
	logger         *slog.Logger
}

// NewAuthService creates an AuthService from the validated process config.
func NewAuthService(cfg config.AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		accessPassword: []byte(cfg.AccessPassword),
		jwtSecret:      []byte(cfg.JWTSecret),
		apiKey:         []byte(cfg.APIKey),
		logger:         logger,
	}
}

// Login compares the submitted password against the configured access
// password and issues a session token on match. Every attempt is audit-logged
// with the client's source address; the password itself is never logged.
func (s *AuthService) Login(password, remoteAddr string) (string, int, error) {
	if subtle.ConstantTimeCompare([]byte(password), s.accessPassword) != 1 {
		s.logger.Warn("login rejected", "remote_addr", remoteAddr)
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.IssueToken()
	if err != nil {
		return "", 0, err
	}
	s.logger.Info("login accepted", "remote_addr", remoteAddr, "subject", TokenSubject)
	return token, int(config.TokenTTL.Seconds()), nil
}

// IssueToken creates a signed session token for the fixed admin identity.
// Expiry is always issued-at + the fixed TTL.
func (s *AuthService) IssueToken() (string, error) {
	now := time.Now()
	claims := Claims{
		Role: TokenRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   TokenSubject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken checks a session token and returns its decoded claims. The two
// failure kinds are distinguishable so callers can return different
// diagnostic codes: ErrTokenExpired for a valid-but-stale token, and
// ErrTokenInvalid for everything else.
func (s *AuthService) VerifyToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// CheckAPIKey reports whether candidate matches the configured API key,
// using a constant-time comparison.
func (s *AuthService) CheckAPIKey(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), s.apiKey) == 1
}
