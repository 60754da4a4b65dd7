package models

import (
	"hbs/src/types"
)

// Message is immutable once created except for the one-way Read flip, which
// only the receiver may perform. A nil SenderID marks a system message.
type Message struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	SenderID      *uint  `gorm:"index" json:"sender_id,omitempty"`
	ReceiverID    uint   `gorm:"index" json:"receiver_id"`
	Body          string `gorm:"type:text" json:"body"`
	ReservationID *uint  `gorm:"index" json:"reservation_id,omitempty"`
	PropertyID    *uint  `gorm:"index" json:"property_id,omitempty"`
	IsSystem      bool   `gorm:"default:false" json:"is_system"`
	Read          bool   `gorm:"default:false" json:"read"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver User  `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	types.Timestamps
}
