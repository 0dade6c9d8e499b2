package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Claims holds the session token claims.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTResolver validates HS256-signed session tokens.
type JWTResolver struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTConfig configures a JWTResolver.
type JWTConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret string

	// Issuer is written into issued tokens and required on validation.
	// Empty disables the issuer check.
	Issuer string

	// TTL is the lifetime of issued tokens. Defaults to DefaultTokenTTL.
	TTL time.Duration
}

// NewJWTResolver creates a resolver for tokens signed with cfg.Secret.
func NewJWTResolver(cfg JWTConfig) (*JWTResolver, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTResolver{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for username valid for the configured TTL.
func (j *JWTResolver) Issue(username string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, errors.New("username is required")
	}

	now := j.now()
	expires := now.Add(j.ttl)
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// UsernameFor implements Resolver.
func (j *JWTResolver) UsernameFor(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims, err := j.validate(token)
	if err != nil {
		logger.Debug("Rejected session token: %v", err)
		return "", false
	}
	return claims.Username, true
}

func (j *JWTResolver) validate(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Username == "" {
		return nil, errors.New("token has no username")
	}
	return claims, nil
}
