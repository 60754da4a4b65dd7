package common

import (
	"hbs/src/models"
	"hbs/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func transitionEvent(kind types.TransitionKind, actorID uint) ReservationEvent {
	checkIn, _ := time.Parse("2006-01-02", "2026-09-10")
	checkOut, _ := time.Parse("2006-01-02", "2026-09-14")
	return ReservationEvent{
		Kind:          kind,
		ActorID:       actorID,
		PropertyTitle: "Seaside flat",
		Reservation: models.Reservation{
			ID:          1,
			RequesterID: 10,
			OwnerID:     20,
			PropertyID:  5,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
		},
	}
}

func TestComposeRequestedAddressesOwner(t *testing.T) {
	receiver, body := ComposeSystemMessage(transitionEvent(types.TRANSITION_REQUESTED, 10))
	assert.Equal(t, uint(20), receiver)
	assert.Equal(t, "You have a new reservation request for Seaside flat (2026-09-10 to 2026-09-14)", body)
}

func TestComposeAcceptedAddressesRequester(t *testing.T) {
	receiver, body := ComposeSystemMessage(transitionEvent(types.TRANSITION_ACCEPTED, 20))
	assert.Equal(t, uint(10), receiver)
	assert.Equal(t, "Your reservation for Seaside flat has been accepted", body)
}

func TestComposeDeclinedIncludesReason(t *testing.T) {
	evt := transitionEvent(types.TRANSITION_DECLINED, 20)
	reason := "dates no longer work"
	evt.Reservation.DeclineReason = &reason
	receiver, body := ComposeSystemMessage(evt)
	assert.Equal(t, uint(10), receiver)
	assert.Equal(t, "Your reservation for Seaside flat has been declined: dates no longer work", body)
}

func TestComposeDeclinedWithoutReason(t *testing.T) {
	receiver, body := ComposeSystemMessage(transitionEvent(types.TRANSITION_DECLINED, 20))
	assert.Equal(t, uint(10), receiver)
	assert.Equal(t, "Your reservation for Seaside flat has been declined", body)
}

func TestComposeCancelledAddressesCounterpart(t *testing.T) {
	// Requester cancels, the owner hears about it.
	receiver, body := ComposeSystemMessage(transitionEvent(types.TRANSITION_CANCELED, 10))
	assert.Equal(t, uint(20), receiver)
	assert.Equal(t, "The reservation for Seaside flat has been cancelled", body)

	// Owner cancels, the requester hears about it.
	receiver, _ = ComposeSystemMessage(transitionEvent(types.TRANSITION_CANCELED, 20))
	assert.Equal(t, uint(10), receiver)
}

func TestComposeFallsBackToPropertyID(t *testing.T) {
	evt := transitionEvent(types.TRANSITION_ACCEPTED, 20)
	evt.PropertyTitle = ""
	_, body := ComposeSystemMessage(evt)
	assert.Equal(t, "Your reservation for property #5 has been accepted", body)
}

func TestSubscribersReceivePublishedEvents(t *testing.T) {
	received := make(chan ReservationEvent, 1)
	SubscribeTransitions(func(evt ReservationEvent) {
		select {
		case received <- evt:
		default:
		}
	})
	evt := transitionEvent(types.TRANSITION_ACCEPTED, 20)
	PublishTransition(evt)

	select {
	case got := <-received:
		assert.Equal(t, types.TRANSITION_ACCEPTED, got.Kind)
		assert.Equal(t, uint(1), got.Reservation.ID)
	default:
		t.Fatal("subscriber was not invoked")
	}
}
