package models

// Customer owns a fleet of devices. Customers match by exact name during
// archive imports.
type Customer struct {
	ID      uint   `json:"id" gorm:"primarykey"`
	Name    string `json:"name" gorm:"not null"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (Customer) TableName() string { return "customers" }
