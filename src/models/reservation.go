package models

import (
	"hbs/src/types"
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	RequesterID   uint      `gorm:"index" json:"requester_id"`
	OwnerID       uint      `gorm:"index" json:"owner_id"`
	PropertyID    uint      `gorm:"index" json:"property_id"`
	Status        string    `gorm:"default:'pending'" json:"status"`
	DeclineReason *string   `json:"decline_reason,omitempty"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Note          string    `json:"note,omitempty"`
	ShareToken    uuid.UUID `gorm:"type:uuid" json:"share_token,omitempty"`

	Property  Property `json:"property,omitempty"`
	Requester User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Owner     User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	types.Timestamps
}
