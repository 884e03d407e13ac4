package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/realm-lfg/config"
	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

const entryTokenIssuer = "realm-lfg"

// EntryTokenClaims is what a dungeon entry token carries.
type EntryTokenClaims struct {
	lfg.EntryClaims
	jwt.RegisteredClaims
}

// TokenService issues and checks the tokens players present to the world
// server when entering a matched dungeon.
type TokenService interface {
	IssueEntryToken(c lfg.EntryClaims) (string, error)
	ParseEntryToken(ctx context.Context, token string) (*EntryTokenClaims, error)
}

type tokenService struct {
	conf  config.JWTConfig
	clock clock.Clock
	l     logger.Logger
}

func NewTokenService(conf config.JWTConfig, clk clock.Clock, l logger.Logger) TokenService {
	if clk == nil {
		clk = clock.Real()
	}
	return &tokenService{
		conf:  conf,
		clock: clk,
		l:     l,
	}
}

func (s *tokenService) IssueEntryToken(c lfg.EntryClaims) (string, error) {
	now := s.clock.Now()
	claims := EntryTokenClaims{
		EntryClaims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    entryTokenIssuer,
			Subject:   c.Member,
			ID:        c.ProposalID + ":" + c.Member,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.conf.Expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}

func (s *tokenService) ParseEntryToken(ctx context.Context, token string) (*EntryTokenClaims, error) {
	if token == "" {
		return nil, ErrTokenEmpty
	}

	claims := &EntryTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return []byte(s.conf.Secret), nil
	},
		jwt.WithIssuer(entryTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.l.Warnf(ctx, "tokenService.ParseEntryToken: %v", err)
			return nil, ErrTokenExpired
		}
		s.l.Warnf(ctx, "Invalid JWT token: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid {
		return nil, ErrTokenNotValid
	}

	if claims.Member == "" || claims.TicketID == "" || claims.ProposalID == "" || claims.Subject != claims.Member {
		return nil, ErrTokenInvalidClaims
	}

	return claims, nil
}

func expiryOf(c *EntryTokenClaims) time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
