package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0712 345 678", "0712345678"},
		{"0712-345-678", "0712345678"},
		{"  0712345678  ", "0712345678"},
		{"+254 712 345 678", "+254712345678"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TrimPhone(tt.in), "TrimPhone(%q)", tt.in)
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"0712345678", "254712345678", "+254712345678", "0110123456"}
	for _, phone := range valid {
		assert.Empty(t, ValidatePhone(phone), "expected %q to be valid", phone)
	}

	tests := []struct {
		phone string
		want  string
	}{
		{"", "Phone number is required"},
		{"07123abc78", "Phone number must contain digits only"},
		{"0712+345678", "Phone number must contain digits only"},
		{"071234567", "Invalid phone number"},
		{"2547123456789", "Invalid phone number"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.phone), "ValidatePhone(%q)", tt.phone)
	}
}
