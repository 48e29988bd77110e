package models

import (
	"time"

	"gorm.io/gorm"
)

type Student struct {
	gorm.Model
	FirstName      string     `gorm:"not null" json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `gorm:"unique;not null" json:"email"`
	Phone          string     `json:"phone"`
	Password       string     `gorm:"not null" json:"-"`
	RefreshToken   string     `json:"-"`
	OTP            string     `json:"-"`
	OTPGeneratedAt *time.Time `json:"-"`
	LastLogoutAt   *time.Time `gorm:"column:last_logout_at" json:"-"`
}
