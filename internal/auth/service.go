package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/mealplan-hub/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Service — сервис авторизации. The service only mints and verifies
// access tokens: user identity itself is owned by the external identity
// service and treated as an opaque subject here.
type Service struct {
	config *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg}
}

// SignInDev — dev-авторизация, выдаёт JWT на 30 дней
func (s *Service) SignInDev(userID string) (*DevAuthResponse, error) {
	if userID == "" {
		userID = "dev-user"
	}
	const devTTL = 30 * 24 * time.Hour

	accessToken, err := s.generateJWTWithTTL(userID, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
	}, nil
}

// GenerateJWT issues a token with the configured TTL.
func (s *Service) GenerateJWT(userID string) (string, error) {
	return s.generateJWTWithTTL(userID, time.Duration(s.config.JWTTTLMinutes)*time.Minute)
}

func (s *Service) generateJWTWithTTL(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT validates a token and returns its subject (the user id).
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
