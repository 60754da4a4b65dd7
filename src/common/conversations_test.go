package common

import (
	"hbs/src/models"
	"hbs/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reservationAt(id uint, status types.ReservationStatus, age time.Duration) models.Reservation {
	r := models.Reservation{ID: id, RequesterID: 10, OwnerID: 20, Status: string(status)}
	r.CreatedAt = time.Now().Add(-age)
	return r
}

func TestPickActiveReservationPrefersLatestPending(t *testing.T) {
	// Newest first, as the store returns them.
	reservations := []models.Reservation{
		reservationAt(3, types.RESERVATION_DECLINED, time.Hour),
		reservationAt(2, types.RESERVATION_PENDING, 2*time.Hour),
		reservationAt(1, types.RESERVATION_PENDING, 3*time.Hour),
	}
	active := PickActiveReservation(reservations)
	assert.NotNil(t, active)
	assert.Equal(t, uint(2), active.ID)
}

func TestPickActiveReservationFallsBackToLatest(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(4, types.RESERVATION_CANCELED, time.Hour),
		reservationAt(3, types.RESERVATION_CONFIRMED, 2*time.Hour),
	}
	active := PickActiveReservation(reservations)
	assert.NotNil(t, active)
	assert.Equal(t, uint(4), active.ID)
}

func TestPickActiveReservationEmpty(t *testing.T) {
	assert.Nil(t, PickActiveReservation(nil))
	assert.Nil(t, PickActiveReservation([]models.Reservation{}))
}

func TestPickActiveReservationSinglePending(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(7, types.RESERVATION_PENDING, time.Minute),
	}
	active := PickActiveReservation(reservations)
	assert.NotNil(t, active)
	assert.Equal(t, uint(7), active.ID)
}
