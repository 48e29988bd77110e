package auth

import (
	"log"
	"net/http"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide a valid email and password."})
		return
	}

	var student models.Student
	if err := utils.DB.Where("email = ?", input.Email).First(&student).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
		return
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
		return
	}

	accessToken, err := utils.GenerateAccessToken(student.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token"})
		return
	}

	// Store only the hash of the refresh token
	student.RefreshToken = utils.HashToken(refreshToken)
	if err := utils.DB.Save(&student).Error; err != nil {
		log.Printf("Failed to save refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in."})
		return
	}

	// The wizard and SSE endpoints authenticate via cookie
	c.SetCookie(TokenCookieName, accessToken, tokenCookieMaxAge, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful.",
		"token":         accessToken,
		"refresh_token": refreshToken,
		"student": gin.H{
			"id":         student.ID,
			"email":      student.Email,
			"first_name": student.FirstName,
			"last_name":  student.LastName,
		},
	})
}
