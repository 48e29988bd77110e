package migrations

import (
	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"
)

func MigrateEnrolments() {
	utils.DB.AutoMigrate(&models.Enrolment{})
}
