package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ledgerpay/ledgerpay/internal/config"
	"github.com/ledgerpay/ledgerpay/internal/owners"
)

// Service issues and refreshes access tokens for wallet owners.
type Service struct {
	cfg  config.Config
	repo owners.Repository
}

func NewService(cfg config.Config, repo owners.Repository) *Service {
	return &Service{cfg: cfg, repo: repo}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues an access/refresh token pair for an authenticated owner.
func (s *Service) Login(owner owners.Owner) (TokenPair, error) {
	access, accessExp, err := s.sign(owner, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.sign(owner, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

func (s *Service) sign(owner owners.Owner, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := map[string]any{
		"sub":   owner.ID,
		"email": owner.Email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseAndVerifyHS256(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, errors.New("invalid refresh token")
	}
	if exp, _ := claims["exp"].(float64); exp != 0 && time.Now().Unix() > int64(exp) {
		return "", 0, errors.New("refresh token expired")
	}
	sub, _ := claims["sub"].(string)

	owner, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		return "", 0, errors.New("owner not found")
	}

	accessClaims := map[string]any{
		"sub":   owner.ID,
		"email": owner.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.AccessTokenTTL).Unix(),
	}
	signed, err := SignHS256(accessClaims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}
