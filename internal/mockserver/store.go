package mockserver

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `gorm:"index" json:"phoneNumber"`
	ProfileImage string    `json:"profileImage"`
	About        string    `json:"about"`
	CreatedAt    time.Time `json:"-"`
}

type Message struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	SenderID      int64     `gorm:"index" json:"senderId"`
	RecieverID    int64     `gorm:"index" json:"recieverId"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	MessageStatus string    `json:"messageStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Reply struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Content string `json:"content"`
}

// OpenStore opens the gorm database at path. ":memory:" gives a private
// in-memory database.
func OpenStore(path string) (*gorm.DB, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?cache=private"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mock database: %w", err)
	}

	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get mock database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&User{}, &Message{}, &Reply{}); err != nil {
		return nil, fmt.Errorf("failed to run mock migration: %w", err)
	}
	return db, nil
}
