package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ptpal/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService issues and validates trainer JWTs. Trainers share a single
// API password; per-trainer credentials live in the main account system,
// which fronts this service.
type AuthService struct {
	apiPassword string
	jwtSecret   []byte
	tokenTTL    time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	password := os.Getenv("PT_API_PASSWORD")
	if password == "" {
		password = "dev-password"
	}
	return &AuthService{
		apiPassword: password,
		jwtSecret:   []byte(secret),
		tokenTTL:    24 * time.Hour,
	}
}

// Login checks the shared password and issues a token bound to the trainer.
func (s *AuthService) Login(trainerID, password string) (*model.LoginResponse, error) {
	if trainerID == "" || password != s.apiPassword {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := model.TrainerClaims{
		TrainerID: trainerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   trainerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.LoginResponse{Token: signed, TrainerID: trainerID}, nil
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*model.TrainerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.TrainerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.TrainerClaims)
	if !ok || claims.TrainerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
