package models

import "gorm.io/gorm"

// Transaction is a confirmed course payment. Rows are only created after a
// gateway callback has been matched to the session that initiated the charge,
// and are never updated afterwards.
type Transaction struct {
	gorm.Model
	MpesaReceiptNumber string  `gorm:"unique;not null" json:"mpesa_receipt_number"`
	Amount             float64 `json:"amount"`
	StudentID          uint    `gorm:"not null;index" json:"student_id"`
}
