// seed/seed.go
package seed

import (
	"errors"
	"log"
	"os"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDemoStudent creates a ready-made account for local development. It only
// runs when DEMO_STUDENT_EMAIL is set.
func SeedDemoStudent() error {
	email := os.Getenv("DEMO_STUDENT_EMAIL")
	if email == "" {
		return nil
	}

	var existing models.Student
	err := utils.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Println("Demo student already exists. Skipping seeding.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := os.Getenv("DEMO_STUDENT_PASSWORD")
	if password == "" {
		password = "changemenow"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	student := models.Student{
		FirstName: "Demo",
		LastName:  "Student",
		Email:     email,
		Phone:     "0712345678",
		Password:  string(hashedPassword),
	}

	if err := utils.DB.Create(&student).Error; err != nil {
		return err
	}

	log.Println("Demo student seeded successfully.")
	return nil
}
