package utils

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt"
)

// ExtractStudentIDFromToken pulls the student ID out of a bearer token string,
// ignoring expiry so it can also be used on the expired access token sent with
// a refresh request.
func ExtractStudentIDFromToken(authHeader string) (uint, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, errors.New("invalid authorization header format")
	}

	return StudentIDFromToken(parts[1])
}

func StudentIDFromToken(tokenString string) (uint, error) {
	token, _ := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret(), nil
	})
	if token == nil {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	studentIDFloat, ok := claims["student_id"].(float64) // JWT numeric values are float64
	if !ok {
		return 0, errors.New("invalid student ID in token")
	}

	return uint(studentIDFloat), nil
}
