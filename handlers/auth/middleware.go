package auth

import (
	"net/http"
	"strings"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// AuthMiddleware authenticates the request from either a bearer token or the
// session cookie set at login. API clients send the header; the enrollment
// wizard and the SSE stream ride on the cookie.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else if cookie, err := c.Cookie(TokenCookieName); err == nil {
			tokenString = cookie
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization is missing"})
			c.Abort()
			return
		}

		// Parse the token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return utils.JWTSecret(), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		studentIDFloat, ok := claims["student_id"].(float64) // JWT numeric values are float64
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid student ID in token"})
			c.Abort()
			return
		}

		studentID := uint(studentIDFloat)

		var student models.Student
		if err := utils.DB.First(&student, studentID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Student not found"})
			c.Abort()
			return
		}

		c.Set("student", student)

		c.Next()
	}
}
