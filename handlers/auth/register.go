package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a new student account
func Register(c *gin.Context) {
	var input struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data."})
		return
	}

	fieldErrors := gin.H{}
	if input.FirstName == "" {
		fieldErrors["first_name"] = "First name is required"
	}
	if input.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if len(input.Password) < 8 {
		fieldErrors["password"] = "Password must be at least 8 characters"
	}
	if input.Phone != "" {
		if msg := utils.ValidatePhone(utils.TrimPhone(input.Phone)); msg != "" {
			fieldErrors["phone"] = msg
		}
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"fieldErrors": fieldErrors})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	student := models.Student{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     utils.TrimPhone(input.Phone),
		Password:  string(hashedPassword),
	}

	if err := utils.DB.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with that email already exists."})
			return
		}
		log.Printf("Failed to create student: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account."})
		return
	}

	token, err := utils.GenerateAccessToken(student.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.SetCookie(TokenCookieName, token, tokenCookieMaxAge, "/", "", false, true)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully.",
		"token":   token,
		"student": gin.H{
			"id":         student.ID,
			"email":      student.Email,
			"first_name": student.FirstName,
			"last_name":  student.LastName,
		},
	})
}
