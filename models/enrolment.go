package models

import "gorm.io/gorm"

type Enrolment struct {
	gorm.Model
	StudentID uint   `gorm:"not null;index" json:"student_id"`
	CourseID  string `gorm:"not null" json:"course_id"`
}
