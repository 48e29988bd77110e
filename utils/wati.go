package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// WatiMessage represents the structure of a message to send via Wati API
type WatiMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendOTPWhatsApp sends a password reset OTP to the student's phone number via
// WhatsApp using the Wati API
func SendOTPWhatsApp(phoneNumber string, otp string) {
	message := WatiMessage{
		Phone:   phoneNumber,
		Message: fmt.Sprintf("Your Paragon E-School verification code is: %s. The code expires in 10 minutes.", otp),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal OTP message: %v", err)
		return
	}

	req, err := http.NewRequest("POST", os.Getenv("WATI_URL")+"/api/v1/sendSessionMessage", bytes.NewBuffer(messageJSON))
	if err != nil {
		log.Printf("Failed to create Wati API request: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("WATI_API_KEY"))

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Failed to send OTP via WhatsApp: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Failed to send OTP via WhatsApp: received status code %d", resp.StatusCode)
	}
}
