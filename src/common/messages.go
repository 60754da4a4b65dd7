package common

import (
	"errors"
	"fmt"
	"hbs/src/bus"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"log"

	"gorm.io/gorm"
)

// SendMessage persists a chat message and then pushes it over the bus.
// Persistence decides success: delivery is best effort and an offline
// receiver simply picks the message up from the thread later.
func SendMessage(b *bus.Bus, senderID uint, params *types.CreateMessageRequestBody) (*models.Message, error) {
	conn := db.GetDb()
	var receiver models.User
	if err := conn.First(&receiver, params.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if senderID == params.ReceiverID {
		return nil, types.ErrForbidden
	}

	message := models.Message{
		SenderID:      &senderID,
		ReceiverID:    params.ReceiverID,
		Body:          params.Body,
		ReservationID: params.ReservationID,
		PropertyID:    params.PropertyID,
	}
	if err := conn.Create(&message).Error; err != nil {
		log.Printf("Error creating message: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}

	if b != nil {
		b.Push(message.ReceiverID, "message-received", message)
		b.Push(senderID, "message-sent", message)
	}
	return &message, nil
}

// SendSystemMessage stores a notifier-authored message and pushes it to the
// receiver. The nil sender marks it as system-generated.
func SendSystemMessage(b *bus.Bus, receiverID uint, body string, reservationID *uint, propertyID *uint) (*models.Message, error) {
	conn := db.GetDb()
	message := models.Message{
		ReceiverID:    receiverID,
		Body:          body,
		ReservationID: reservationID,
		PropertyID:    propertyID,
		IsSystem:      true,
	}
	if err := conn.Create(&message).Error; err != nil {
		log.Printf("Error creating system message: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if b != nil {
		b.Push(receiverID, "message-received", message)
	}
	return &message, nil
}

// MarkMessageRead flips the read flag. Only the receiver's flip takes
// effect; anyone else's call, like a repeated one, is a silent no-op so
// clients can issue it speculatively.
func MarkMessageRead(b *bus.Bus, messageID uint, actorID uint) error {
	conn := db.GetDb()
	res := conn.Model(&models.Message{}).
		Where("id = ? AND receiver_id = ? AND read = ?", messageID, actorID, false).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("%w: %s", types.ErrTransient, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		var message models.Message
		if err := conn.First(&message, messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
		}
		// Already read, or someone else's message; the flag stays put.
		return nil
	}
	if b != nil {
		var message models.Message
		if err := conn.First(&message, messageID).Error; err == nil && message.SenderID != nil {
			b.Push(*message.SenderID, "read-receipt", message)
		}
	}
	return nil
}

func UnreadCount(userID uint) (int64, error) {
	conn := db.GetDb()
	var count int64
	err := conn.Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return count, nil
}

// DeleteMessage removes one of the sender's own chat messages. System
// messages are not deletable; they are the audit trail of transitions.
func DeleteMessage(messageID uint, actorID uint) error {
	conn := db.GetDb()
	var message models.Message
	if err := conn.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if message.IsSystem || message.SenderID == nil || *message.SenderID != actorID {
		return types.ErrForbidden
	}
	if err := conn.Delete(&message).Error; err != nil {
		return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return nil
}
