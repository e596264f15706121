package models

import (
	"time"
)

// Roles a user can hold.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}

// User represents an employee or administrator.
//
// NOTE:
//   - Tasks reference users through Task.AssignedToID; messages through
//     Message.SenderID / Message.ReceiverID. Nothing is embedded here.
//   - Email is stored normalized (trimmed, lower-case) and is unique.
type User struct {
	ID     string `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	Name   string `bson:"name" json:"name" gorm:"not null"`
	NameCI string `bson:"name_ci" json:"-" gorm:"index"` // lowercase, diacritics-stripped
	Email  string `bson:"email" json:"email" gorm:"uniqueIndex;not null"`
	Role   string `bson:"role" json:"role" gorm:"not null;default:employee"` // admin | employee
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
