package models

import "gorm.io/gorm"

// WizardSession backs the enrollment wizard's cookie session. Data holds the
// JSON-encoded step payloads; the session package owns its shape.
type WizardSession struct {
	gorm.Model
	Token       string `gorm:"uniqueIndex;size:64;not null"`
	CurrentStep int    `gorm:"default:1"`
	Data        string `gorm:"type:text"`
}
