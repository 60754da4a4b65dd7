package common

import (
	"fmt"
	"hbs/src/bus"
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/lib/mailer"
	"hbs/src/models"
	"hbs/src/types"
	"log"
	"os"
)

// ComposeSystemMessage renders the fixed template for a transition and
// addresses it to the non-acting party.
func ComposeSystemMessage(evt ReservationEvent) (uint, string) {
	title := evt.PropertyTitle
	if title == "" {
		title = fmt.Sprintf("property #%d", evt.Reservation.PropertyID)
	}
	var body string
	switch evt.Kind {
	case types.TRANSITION_REQUESTED:
		body = fmt.Sprintf(
			"You have a new reservation request for %s (%s to %s)",
			title,
			evt.Reservation.CheckIn.Format("2006-01-02"),
			evt.Reservation.CheckOut.Format("2006-01-02"),
		)
	case types.TRANSITION_ACCEPTED:
		body = fmt.Sprintf("Your reservation for %s has been accepted", title)
	case types.TRANSITION_DECLINED:
		body = fmt.Sprintf("Your reservation for %s has been declined", title)
		if evt.Reservation.DeclineReason != nil && *evt.Reservation.DeclineReason != "" {
			body = fmt.Sprintf("%s: %s", body, *evt.Reservation.DeclineReason)
		}
	case types.TRANSITION_CANCELED:
		body = fmt.Sprintf("The reservation for %s has been cancelled", title)
	}
	return evt.Counterpart(), body
}

// SystemNotifier turns committed transitions into stored system messages,
// bus pushes and transactional emails. Everything it does is best effort;
// a notifier failure never fails the transition that triggered it.
type SystemNotifier struct {
	bus *bus.Bus
}

func NewSystemNotifier(b *bus.Bus) *SystemNotifier {
	return &SystemNotifier{bus: b}
}

func (n *SystemNotifier) HandleTransition(evt ReservationEvent) {
	receiverID, body := ComposeSystemMessage(evt)
	if body == "" || receiverID == 0 {
		return
	}
	reservationID := evt.Reservation.ID
	propertyID := evt.Reservation.PropertyID
	if _, err := SendSystemMessage(n.bus, receiverID, body, &reservationID, &propertyID); err != nil {
		log.Printf("Error sending system message for reservation [%d]: %s\n", reservationID, err.Error())
	}

	if os.Getenv("SMTP_HOST") == "" {
		return
	}
	go func() {
		conn := db.GetDb()
		var receiver models.User
		if err := conn.First(&receiver, receiverID).Error; err != nil {
			log.Printf("Error loading mail recipient [%d]: %s\n", receiverID, err.Error())
			return
		}
		input := &lib.SendMailInput{
			From:     os.Getenv("SMTP_FROM"),
			FromName: os.Getenv("SMTP_FROM_NAME"),
			To:       []string{receiver.Email},
			Subject:  fmt.Sprintf("Reservation update for %s", evt.PropertyTitle),
			Body:     body,
		}
		if err := mailer.NewMailerMessage(input); err != nil {
			log.Printf("Error sending transition email for reservation [%d]: %s\n", reservationID, err.Error())
		}
	}()
}

// RegisterNotifier subscribes a notifier bound to the bus to the transition
// stream. Call once during boot.
func RegisterNotifier(b *bus.Bus) *SystemNotifier {
	notifier := NewSystemNotifier(b)
	SubscribeTransitions(notifier.HandleTransition)
	return notifier
}
