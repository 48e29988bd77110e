package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RequestOTP handles password reset requests by generating and sending a new OTP
func RequestOTP(c *gin.Context) {
	var input struct {
		Email          string `json:"email"`
		DeliveryMethod string `json:"delivery_method"` // "email" (default) or "phone"
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide a valid email address."})
		return
	}

	if input.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email address is required."})
		return
	}

	var student models.Student
	if err := utils.DB.Where("email = ?", input.Email).First(&student).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found. Please check your email address."})
		return
	}

	if input.DeliveryMethod == "phone" && student.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No phone number on record. Use email delivery instead."})
		return
	}

	otp := generateOTP()
	student.OTP = otp
	now := time.Now()
	student.OTPGeneratedAt = &now

	if err := utils.DB.Save(&student).Error; err != nil {
		log.Printf("Failed to save OTP: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue saving the OTP. Please try again later."})
		return
	}

	if input.DeliveryMethod == "phone" {
		sendOTP("phone", student.Phone, otp)
	} else {
		sendOTP("email", student.Email, otp)
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent."})
}

// VerifyOTPReset validates the OTP during password reset
func VerifyOTPReset(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please ensure all required fields are filled correctly."})
		return
	}

	if input.Email == "" || input.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required."})
		return
	}

	if _, ok := studentWithValidOTP(c, input.Email, input.OTP); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP verified."})
}

// ResetPassword sets a new password after the OTP has been verified
func ResetPassword(c *gin.Context) {
	var input struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data."})
		return
	}

	if len(input.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters."})
		return
	}

	student, ok := studentWithValidOTP(c, input.Email, input.OTP)
	if !ok {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	student.Password = string(hashedPassword)
	student.OTP = ""
	student.OTPGeneratedAt = nil
	student.RefreshToken = ""
	if err := utils.DB.Save(&student).Error; err != nil {
		log.Printf("Failed to reset password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully."})
}

func studentWithValidOTP(c *gin.Context, email, otp string) (models.Student, bool) {
	var student models.Student
	if err := utils.DB.Where("email = ?", email).First(&student).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found. Please check your email address."})
		return student, false
	}

	if student.OTP == "" || student.OTPGeneratedAt == nil || otp != student.OTP {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid OTP"})
		return student, false
	}

	if time.Now().After(student.OTPGeneratedAt.Add(otpValidityDuration)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Expired OTP"})
		return student, false
	}

	return student, true
}
