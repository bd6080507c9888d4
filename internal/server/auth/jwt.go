package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sharenest/sharenest/internal/common"
)

// Claims carries the registered claims plus the authenticated subject role.
type Claims struct {
	jwt.RegisteredClaims
	Role string
}

// RoleAdmin is the only role issued today; reconciliation and cleanup
// endpoints require it.
const RoleAdmin = "admin"

// GenerateToken signs an HS256 token for the given role.
func GenerateToken(role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetRoleFromToken verifies the signature and expiry and returns the role.
func GetRoleFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Role, nil
}
