package auth

import (
	"math/rand"
	"time"

	"github.com/thedevbrian1/paragon-net/utils"
)

const otpValidityDuration = 10 * time.Minute

// Cookie carrying the access token for browser flows (the enrollment wizard
// submits plain forms, with no Authorization header).
const TokenCookieName = "paragon_token"

const tokenCookieMaxAge = 72 * 60 * 60 // seconds, matches the token expiry

// generateOTP generates a 6-digit OTP
func generateOTP() string {
	source := rand.NewSource(time.Now().UnixNano())
	r := rand.New(source)
	const digits = "0123456789"
	otp := make([]byte, 6)
	for i := range otp {
		otp[i] = digits[r.Intn(len(digits))]
	}
	return string(otp)
}

// sendOTP sends the OTP via email or WhatsApp based on the delivery method
func sendOTP(deliveryMethod, contactInfo, otp string) {
	if deliveryMethod == "phone" {
		utils.SendOTPWhatsApp(contactInfo, otp)
	} else {
		utils.SendOTPEmail(contactInfo, otp)
	}
}
