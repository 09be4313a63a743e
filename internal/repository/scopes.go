package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedBy limits a query on the current model's table to rows of one user.
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: "user_id"},
			Value:  userID,
		})
	}
}
