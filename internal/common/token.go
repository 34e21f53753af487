package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/papertrade/internal/models"
)

const tokenIssuer = "papertrade"

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// SignToken mints an HS256 bearer token for uc.
func SignToken(cfg AuthConfig, uc UserContext, now time.Time) (string, error) {
	if uc.UserID == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	role := uc.Role
	if role == "" {
		role = models.RoleUser
	}
	claims := jwt.MapClaims{
		"sub":   uc.UserID,
		"email": uc.Email,
		"role":  string(role),
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(cfg.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a bearer token and returns the caller it names.
func ParseToken(secret, tokenString string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	role := models.Role(fmt.Sprint(claims["role"]))
	if !role.Valid() {
		role = models.RoleUser
	}
	return &UserContext{UserID: sub, Email: email, Role: role}, nil
}
