package models

import "time"

// User is an account seen in a verified identity token. Accounts are owned by
// the identity provider; this table only exists so users can be counted.
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"index"`
	CreatedAt time.Time
}
