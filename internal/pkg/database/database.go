package database

import (
	"gorm.io/gorm"
)

var DB *gorm.DB

// GetDB returns the global database handle
func GetDB() *gorm.DB {
	return DB
}
