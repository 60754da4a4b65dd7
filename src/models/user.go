package models

import (
	"hbs/src/types"
)

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `gorm:"default:'user'" json:"role,omitempty"`
	UID   string `json:"uid,omitempty"`

	Password string `json:"-"`

	Properties   []Property    `gorm:"foreignKey:owner_id" json:"properties,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:requester_id" json:"reservations,omitempty"`

	types.Timestamps
}
