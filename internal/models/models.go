package models

import "time"

type Product struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name         string    `gorm:"not null;index"                json:"name"`
	Brand        string    `gorm:"not null;index"                json:"brand"`
	Unit         string    `gorm:"not null"                      json:"unit"`
	DefaultPrice float64   `gorm:"not null"                      json:"defaultPrice"`
	ImageURL     string    `gorm:"not null"                      json:"imageUrl"`
	Active       bool      `gorm:"column:is_active;not null"      json:"active"`
	Recommended  bool      `gorm:"column:is_recommended;not null" json:"recommended"`
	CreatedAt    time.Time `gorm:"autoCreateTime;<-:create"      json:"createdAt"`
	LastUpdate   time.Time `gorm:"autoUpdateTime"                json:"lastUpdate"`
}

// User is a stored credential. Rows are provisioned outside this service.
type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null"                     json:"-"`
	Enabled      bool       `gorm:"not null"                     json:"enabled"`
	Roles        []UserRole `gorm:"constraint:OnDelete:CASCADE"  json:"roles,omitempty"`
}

type UserRole struct {
	ID     uint   `gorm:"primaryKey"                              json:"-"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_role"      json:"-"`
	Role   string `gorm:"size:64;not null;uniqueIndex:idx_user_role" json:"role"`
}
