package model

import "github.com/golang-jwt/jwt/v5"

// LoginRequest is the trainer login payload
type LoginRequest struct {
	TrainerID string `json:"trainerId"`
	Password  string `json:"password"`
}

// LoginResponse carries the issued trainer token
type LoginResponse struct {
	Token     string `json:"token"`
	TrainerID string `json:"trainerId"`
}

// TrainerClaims are the JWT claims for a trainer session
type TrainerClaims struct {
	TrainerID string `json:"trainerId"`
	jwt.RegisteredClaims
}
