package common

import (
	"errors"
	"fmt"
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CanTransition is the single source of truth for the reservation state
// machine. Accept and decline only leave pending; cancel leaves pending or
// confirmed; declined and cancelled accept nothing.
func CanTransition(current types.ReservationStatus, kind types.TransitionKind) bool {
	switch kind {
	case types.TRANSITION_ACCEPTED, types.TRANSITION_DECLINED:
		return current == types.RESERVATION_PENDING
	case types.TRANSITION_CANCELED:
		return current == types.RESERVATION_PENDING || current == types.RESERVATION_CONFIRMED
	}
	return false
}

func targetStatus(kind types.TransitionKind) types.ReservationStatus {
	switch kind {
	case types.TRANSITION_ACCEPTED:
		return types.RESERVATION_CONFIRMED
	case types.TRANSITION_DECLINED:
		return types.RESERVATION_DECLINED
	default:
		return types.RESERVATION_CANCELED
	}
}

func RequestReservation(params *types.CreateReservationRequestBody, requesterID uint) (*models.Reservation, error) {
	checkIn, err := time.Parse(config.TIME_PARSE_FORMAT, params.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := time.Parse(config.TIME_PARSE_FORMAT, params.CheckOut)
	if err != nil {
		return nil, err
	}

	tx := db.GetDb()
	var property models.Property
	if err := tx.First(&property, params.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if property.OwnerID == requesterID {
		return nil, types.ErrForbidden
	}
	if !property.Available {
		return nil, types.ErrResourceUnavailable
	}

	reservation := models.Reservation{
		RequesterID: requesterID,
		OwnerID:     property.OwnerID,
		PropertyID:  property.ID,
		Status:      string(types.RESERVATION_PENDING),
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Note:        params.Note,
		ShareToken:  uuid.New(),
	}
	if err := tx.Create(&reservation).Error; err != nil {
		log.Printf("Error creating reservation: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	reservation.Property = property

	PublishTransition(ReservationEvent{
		Kind:          types.TRANSITION_REQUESTED,
		ActorID:       requesterID,
		PropertyTitle: property.Title,
		Reservation:   reservation,
	})
	return &reservation, nil
}

func AcceptReservation(id uint, actorID uint, supervisor bool) (*models.Reservation, error) {
	return transitionReservation(id, actorID, types.TRANSITION_ACCEPTED, nil, supervisor)
}

func DeclineReservation(id uint, actorID uint, reason *string, supervisor bool) (*models.Reservation, error) {
	return transitionReservation(id, actorID, types.TRANSITION_DECLINED, reason, supervisor)
}

func CancelReservation(id uint, actorID uint, supervisor bool) (*models.Reservation, error) {
	return transitionReservation(id, actorID, types.TRANSITION_CANCELED, nil, supervisor)
}

// transitionReservation applies a lifecycle transition with a conditional
// update keyed on the status that was read, so two racing actors can never
// both win. The loser observes zero affected rows and is reported the
// status that beat it.
func transitionReservation(id uint, actorID uint, kind types.TransitionKind, reason *string, supervisor bool) (*models.Reservation, error) {
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.Preload("Property").First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}

	if err := authorizeTransition(&reservation, actorID, kind, supervisor); err != nil {
		return &reservation, err
	}

	prior := types.ReservationStatus(reservation.Status)
	if !CanTransition(prior, kind) {
		return &reservation, types.ErrInvalidTransition
	}

	target := targetStatus(kind)
	err := conn.Transaction(func(tx *gorm.DB) error {
		values := map[string]any{"status": string(target)}
		if kind == types.TRANSITION_DECLINED && reason != nil {
			values["decline_reason"] = *reason
		}
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, string(prior)).
			Updates(values)
		if res.Error != nil {
			return fmt.Errorf("%w: %s", types.ErrTransient, res.Error.Error())
		}
		if res.RowsAffected == 0 {
			return types.ErrInvalidTransition
		}

		switch {
		case kind == types.TRANSITION_ACCEPTED:
			if err := tx.Model(&models.Property{}).Where("id = ?", reservation.PropertyID).Update("available", false).Error; err != nil {
				return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
			}
		case kind == types.TRANSITION_CANCELED && prior == types.RESERVATION_CONFIRMED:
			if err := tx.Model(&models.Property{}).Where("id = ?", reservation.PropertyID).Update("available", true).Error; err != nil {
				return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrInvalidTransition) {
			// Lost the race. Reload so the caller sees the status that won.
			if lerr := conn.First(&reservation, id).Error; lerr != nil {
				log.Printf("Error reloading reservation [%d]: %s\n", id, lerr.Error())
			}
		}
		return &reservation, err
	}

	reservation.Status = string(target)
	if kind == types.TRANSITION_DECLINED && reason != nil {
		reservation.DeclineReason = reason
	}
	PublishTransition(ReservationEvent{
		Kind:          kind,
		ActorID:       actorID,
		PropertyTitle: reservation.Property.Title,
		Reservation:   reservation,
	})
	return &reservation, nil
}

func authorizeTransition(reservation *models.Reservation, actorID uint, kind types.TransitionKind, supervisor bool) error {
	if supervisor {
		return nil
	}
	switch kind {
	case types.TRANSITION_ACCEPTED, types.TRANSITION_DECLINED:
		if actorID != reservation.OwnerID {
			return types.ErrForbidden
		}
	case types.TRANSITION_CANCELED:
		if actorID != reservation.RequesterID && actorID != reservation.OwnerID {
			return types.ErrForbidden
		}
	default:
		return types.ErrForbidden
	}
	return nil
}

// UpdateReservation lets the requester adjust dates or the note while the
// request is still pending. The pending condition rides on the update so a
// concurrent decision wins cleanly.
func UpdateReservation(id uint, actorID uint, params *types.UpdateReservationRequestBody) (*models.Reservation, error) {
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if reservation.RequesterID != actorID {
		return &reservation, types.ErrForbidden
	}

	values := map[string]any{}
	if params.CheckIn != nil {
		checkIn, err := time.Parse(config.TIME_PARSE_FORMAT, *params.CheckIn)
		if err != nil {
			return &reservation, err
		}
		values["check_in"] = checkIn
	}
	if params.CheckOut != nil {
		checkOut, err := time.Parse(config.TIME_PARSE_FORMAT, *params.CheckOut)
		if err != nil {
			return &reservation, err
		}
		values["check_out"] = checkOut
	}
	if params.Note != nil {
		values["note"] = *params.Note
	}
	if len(values) == 0 {
		return &reservation, nil
	}

	res := conn.Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, string(types.RESERVATION_PENDING)).
		Updates(values)
	if res.Error != nil {
		return &reservation, fmt.Errorf("%w: %s", types.ErrTransient, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		if err := conn.First(&reservation, id).Error; err != nil {
			log.Printf("Error reloading reservation [%d]: %s\n", id, err.Error())
		}
		return &reservation, types.ErrInvalidTransition
	}
	if err := conn.First(&reservation, id).Error; err != nil {
		return &reservation, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return &reservation, nil
}

// DeleteReservation removes a settled reservation from the requester's
// history. Live reservations must go through cancel first.
func DeleteReservation(id uint, actorID uint) error {
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if reservation.RequesterID != actorID {
		return types.ErrForbidden
	}
	if !types.ReservationStatus(reservation.Status).Terminal() {
		return types.ErrInvalidTransition
	}
	if err := conn.Delete(&reservation).Error; err != nil {
		return fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return nil
}

func GetReservation(id uint, actorID uint, supervisor bool) (*models.Reservation, error) {
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.Preload("Property").Preload("Requester").Preload("Owner").First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if !supervisor && actorID != reservation.RequesterID && actorID != reservation.OwnerID {
		return nil, types.ErrForbidden
	}
	return &reservation, nil
}

func ListReservations(userID uint, filters *types.ReservationQueryFilters) ([]models.Reservation, error) {
	conn := db.GetDb()
	query := conn.Preload("Property")
	switch filters.Role {
	case "owner":
		query = query.Where("owner_id = ?", userID)
	case "requester":
		query = query.Where("requester_id = ?", userID)
	default:
		query = query.Where("requester_id = ? OR owner_id = ?", userID, userID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	var reservations []models.Reservation
	if err := query.Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return reservations, nil
}

// ExpireStaleReservations cancels pending reservations that nobody decided
// on within the TTL. Each row goes through the normal transition path so
// events fire and racing decisions are respected.
func ExpireStaleReservations() {
	conn := db.GetDb()
	cutoff := time.Now().Add(-time.Duration(config.PENDING_RESERVATION_TTL_HOURS) * time.Hour)
	var stale []models.Reservation
	err := conn.
		Where("status = ? AND created_at < ?", string(types.RESERVATION_PENDING), cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error listing stale reservations: %s\n", err.Error())
		return
	}
	for _, reservation := range stale {
		if _, err := CancelReservation(reservation.ID, reservation.OwnerID, true); err != nil {
			log.Printf("Error expiring reservation [%d]: %s\n", reservation.ID, err.Error())
		}
	}
	if len(stale) > 0 {
		log.Printf("Expired %d stale reservations\n", len(stale))
	}
}
