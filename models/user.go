package models

import "time"

// User is a local technician account for the HTTP surface.
type User struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	Username       string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	TechnicianName string    `json:"technician_name"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
