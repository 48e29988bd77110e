package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// SendOTPEmail sends a password reset OTP to the student's email address
func SendOTPEmail(email string, otp string) {
	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_SENDER")) // Sender email address from environment
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Paragon E-School verification code")
	m.SetBody("text/plain", fmt.Sprintf("Your Paragon E-School verification code is: %s\n\nThe code expires in 10 minutes.", otp))

	d := gomail.NewDialer(
		os.Getenv("SMTP_HOST"),
		465,
		os.Getenv("SMTP_USER"), // SMTP username, usually your email address
		os.Getenv("SMTP_PASS"),
	)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send OTP email to %s: %v", email, err)
		return
	}

	log.Printf("OTP email successfully sent to %s", email)
}
