package common

import (
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"
	"log"
	"os"
	"sync"
)

const TransitionsTopic = "reservation-transitions"

// ReservationEvent is the snapshot emitted after a lifecycle transition has
// been committed. Subscribers must treat it as read-only.
type ReservationEvent struct {
	Kind          types.TransitionKind `json:"kind"`
	ActorID       uint                 `json:"actor_id"`
	PropertyTitle string               `json:"property_title"`
	Reservation   models.Reservation   `json:"reservation"`
}

// Counterpart returns the party on the other side of the acting one.
func (e ReservationEvent) Counterpart() uint {
	if e.ActorID == e.Reservation.OwnerID {
		return e.Reservation.RequesterID
	}
	return e.Reservation.OwnerID
}

var (
	transitionMu          sync.RWMutex
	transitionSubscribers []func(ReservationEvent)
)

func SubscribeTransitions(fn func(ReservationEvent)) {
	transitionMu.Lock()
	defer transitionMu.Unlock()
	transitionSubscribers = append(transitionSubscribers, fn)
}

// PublishTransition fans the event out to in-process subscribers and, when a
// broker is configured, to the transitions topic. The transition itself is
// already committed; every downstream failure here is logged and swallowed.
func PublishTransition(evt ReservationEvent) {
	transitionMu.RLock()
	subs := make([]func(ReservationEvent), len(transitionSubscribers))
	copy(subs, transitionSubscribers)
	transitionMu.RUnlock()

	for _, fn := range subs {
		fn(evt)
	}

	if os.Getenv("KAFKA_BROKER") == "" {
		return
	}
	go func() {
		payload := types.JSONB{
			"kind":           evt.Kind,
			"actor_id":       evt.ActorID,
			"reservation_id": evt.Reservation.ID,
			"property_id":    evt.Reservation.PropertyID,
			"status":         evt.Reservation.Status,
		}
		if err := lib.KafkaProduceMessage("reservations", TransitionsTopic, payload); err != nil {
			log.Printf("Error publishing transition for reservation [%d]: %s\n", evt.Reservation.ID, err.Error())
		}
	}()
}
