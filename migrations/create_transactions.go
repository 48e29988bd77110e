package migrations

import (
	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"
)

func MigrateTransactions() {
	utils.DB.AutoMigrate(&models.Transaction{})
	utils.DB.AutoMigrate(&models.MpesaPayment{})
}
