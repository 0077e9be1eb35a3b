package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/brokerage/internal/auth/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	tokenIssuer = "brokerage"
	maskToken   = "****"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	Clock  clock.Clock
}

type apiKey struct {
	hash string
	role string
	mask string
}

type Service struct {
	log    *zap.Logger
	clock  clock.Clock
	keys   []apiKey
	secret []byte
}

func New(p Params) domain.Service {
	keys := make([]apiKey, 0, len(p.Config.APIKeys))
	for raw, role := range p.Config.APIKeys {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		keys = append(keys, apiKey{
			hash: hashKey(raw),
			role: strings.ToLower(strings.TrimSpace(role)),
			mask: maskKey(raw),
		})
	}

	var secret []byte
	if s := strings.TrimSpace(p.Config.JWTSecret); s != "" {
		secret = []byte(s)
	}

	return &Service{
		log:    p.Log.Named("auth.service"),
		clock:  p.Clock,
		keys:   keys,
		secret: secret,
	}
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (domain.Principal, error) {
	_ = ctx
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Principal{}, domain.ErrMissingCredentials
	}

	if principal, ok := s.matchAPIKey(rawToken); ok {
		return principal, nil
	}

	// Anything shaped like a JWT goes through signature checks; other values
	// can only have been API keys.
	if strings.Count(rawToken, ".") != 2 || s.secret == nil {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	return s.parseToken(rawToken)
}

func (s *Service) IssueToken(subject string, role string, ttl time.Duration) (string, error) {
	if s.secret == nil {
		return "", domain.ErrTokensDisabled
	}
	subject = strings.TrimSpace(subject)
	role = strings.ToLower(strings.TrimSpace(role))
	if subject == "" || role == "" || ttl <= 0 {
		return "", domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	claims := domain.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) matchAPIKey(rawToken string) (domain.Principal, bool) {
	hash := hashKey(rawToken)
	for _, key := range s.keys {
		if subtle.ConstantTimeCompare([]byte(key.hash), []byte(hash)) == 1 {
			return domain.Principal{
				Actor:  "api_key:" + key.mask,
				Role:   key.role,
				Method: domain.MethodAPIKey,
			}, true
		}
	}
	return domain.Principal{}, false
}

func (s *Service) parseToken(rawToken string) (domain.Principal, error) {
	claims := &domain.Claims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.ErrTokenExpired
		}
		s.log.Debug("rejected bearer token", zap.Error(err))
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Role) == "" {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	return domain.Principal{
		Actor:  "user:" + strings.TrimSpace(claims.Subject),
		Role:   strings.ToLower(strings.TrimSpace(claims.Role)),
		Method: domain.MethodToken,
	}, nil
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// maskKey keeps the key prefix (up to the last underscore) and its last four
// characters.
func maskKey(raw string) string {
	prefix, remainder := "", raw
	if i := strings.LastIndex(raw, "_"); i >= 0 && i < len(raw)-1 {
		prefix, remainder = raw[:i+1], raw[i+1:]
	}
	if len(remainder) <= 4 {
		return prefix + maskToken
	}
	return prefix + maskToken + remainder[len(remainder)-4:]
}
