package database

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// feedbackV1 is the table layout as of the first migration. It is frozen here
// so later changes to model.Feedback do not rewrite history.
type feedbackV1 struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Question  string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text;not null"`
	Latency   float64   `gorm:"not null"`
	Rating    string    `gorm:"size:32;not null;index"`
	CreatedAt time.Time `gorm:"index"`
}

func (feedbackV1) TableName() string {
	return "feedback"
}

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "0001_create_feedback",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&feedbackV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("feedback")
			},
		},
	})
}

func Migrate(db *gorm.DB) error {
	return GetMigrator(db).Migrate()
}
