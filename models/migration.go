package models

import (
	"log"

	"github.com/msahtani/storeyes-backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{},
		&Employee{},
		&FixedCharge{}, &PersonnelEmployee{}, &PersonnelWeekSalary{},
		&VariableCharge{},
		&DailyRevenue{},
		&UserPreference{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
