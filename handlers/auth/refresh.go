package auth

import (
	"net/http"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
)

func RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide a refresh token."})
		return
	}

	// Extract the student ID from the expired access token in the Authorization header
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		return
	}

	studentID, err := utils.ExtractStudentIDFromToken(authHeader)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
		return
	}

	var student models.Student
	if err := utils.DB.First(&student, studentID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Student not found"})
		return
	}

	// Verify the refresh token matches the one in the database
	if student.RefreshToken == "" || utils.HashToken(input.RefreshToken) != student.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	newAccessToken, err := utils.GenerateAccessToken(student.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate access token"})
		return
	}

	newRefreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate refresh token"})
		return
	}

	// Hash and save the new refresh token
	student.RefreshToken = utils.HashToken(newRefreshToken)
	if err := utils.DB.Save(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save refresh token"})
		return
	}

	c.SetCookie(TokenCookieName, newAccessToken, tokenCookieMaxAge, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}
