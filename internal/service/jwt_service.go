package service

import (
	"fmt"
	"time"

	"quizhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTService struct {
	secretKey []byte
	expiry    time.Duration
}

func NewJWTService(secret string, expiryHours int) *JWTService {
	return &JWTService{
		secretKey: []byte(secret),
		expiry:    time.Duration(expiryHours) * time.Hour,
	}
}

func (s *JWTService) GenerateToken(userID string) (string, error) {
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "quizhub",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("error generating token string: %w", err)
	}
	return tokenString, nil
}

func (s *JWTService) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&models.Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
