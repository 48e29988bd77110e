package utils

import "strings"

// TrimPhone strips the spaces and hyphens people type into phone inputs
// ("0712 345 678" -> "0712345678").
func TrimPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}

// ValidatePhone returns a field error message, or "" when the phone number is
// acceptable. Accepted forms are the local 10-digit format (07XX/01XX...) and
// the international format with or without a leading "+".
func ValidatePhone(phone string) string {
	if phone == "" {
		return "Phone number is required"
	}

	digits := phone
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return "Phone number must contain digits only"
		}
	}

	if len(digits) < 10 || len(digits) > 12 {
		return "Invalid phone number"
	}

	return ""
}
