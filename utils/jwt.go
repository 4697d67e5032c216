package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs an HS256 token for the user that expires after ttl.
func GenerateToken(secret string, userID uint, email string, ttl time.Duration) (string, time.Time, error) {
	expires := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     expires.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not generate token: %w", err)
	}
	return signed, expires, nil
}

// ParseToken validates an access token and returns its claims and expiry.
func ParseToken(secret, raw string) (*UserClaims, time.Time, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, time.Time{}, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, time.Time{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	var expires time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expires = time.Unix(int64(exp), 0)
	}
	return &UserClaims{UserID: uint(userID), Email: email}, expires, nil
}
