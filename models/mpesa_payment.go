package models

import "gorm.io/gorm"

// MpesaPayment is an audit row for every STK push we dispatch. It records the
// request, not the outcome: a Success status still only means the gateway
// reported success in its callback, never proof of payment on its own.
type MpesaPayment struct {
	gorm.Model
	CheckoutRequestID string `gorm:"unique;not null"`
	MerchantRequestID string
	SessionToken      string  `gorm:"index"`
	PhoneNumber       string  `gorm:"not null"`
	Amount            float64 `gorm:"not null"`
	Status            string  `gorm:"not null"` // e.g., "Pending", "Success", "Failed"
}
