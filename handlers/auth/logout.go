package auth

import (
	"net/http"
	"time"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
)

func Logout(c *gin.Context) {
	studentInterface, exists := c.Get("student")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Student not found in context"})
		return
	}
	student := studentInterface.(models.Student)

	// Remove the refresh token from the database
	student.RefreshToken = ""
	now := time.Now()
	student.LastLogoutAt = &now
	if err := utils.DB.Save(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.SetCookie(TokenCookieName, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful.",
	})
}
