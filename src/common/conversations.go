package common

import (
	"fmt"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
)

const (
	DefaultThreadLimit = 50
	MaxThreadLimit     = 100
)

// PickActiveReservation resolves which reservation a conversation is about:
// the latest pending one, or failing that the latest of any status. The
// input must be ordered newest first.
func PickActiveReservation(reservations []models.Reservation) *models.Reservation {
	for i := range reservations {
		if reservations[i].Status == string(types.RESERVATION_PENDING) {
			return &reservations[i]
		}
	}
	if len(reservations) > 0 {
		return &reservations[0]
	}
	return nil
}

// PairReservations returns every reservation between the two principals in
// either orientation, newest first.
func PairReservations(a uint, b uint) ([]models.Reservation, error) {
	conn := db.GetDb()
	var reservations []models.Reservation
	err := conn.
		Where("(requester_id = ? AND owner_id = ?) OR (requester_id = ? AND owner_id = ?)", a, b, b, a).
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return reservations, nil
}

func ActiveReservation(a uint, b uint) (*models.Reservation, error) {
	reservations, err := PairReservations(a, b)
	if err != nil {
		return nil, err
	}
	return PickActiveReservation(reservations), nil
}

// ListConversations folds the user's messages into one entry per peer with
// the most recent message, the unread tally and the resolved reservation.
func ListConversations(userID uint) ([]types.APIResponseConversation, error) {
	conn := db.GetDb()
	var messages []models.Message
	err := conn.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}

	// System messages carry no sender; their peer is the other party of the
	// reservation they reference.
	reservationIDs := []uint{}
	for _, m := range messages {
		if m.SenderID == nil && m.ReservationID != nil {
			reservationIDs = append(reservationIDs, *m.ReservationID)
		}
	}
	reservationPeers := map[uint]uint{}
	if len(reservationIDs) > 0 {
		var refs []models.Reservation
		if err := conn.Unscoped().Where("id IN ?", reservationIDs).Find(&refs).Error; err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
		}
		for _, r := range refs {
			if r.RequesterID == userID {
				reservationPeers[r.ID] = r.OwnerID
			} else {
				reservationPeers[r.ID] = r.RequesterID
			}
		}
	}

	order := []uint{}
	latest := map[uint]models.Message{}
	unread := map[uint]int64{}
	for _, m := range messages {
		var peer uint
		switch {
		case m.SenderID != nil && *m.SenderID != userID:
			peer = *m.SenderID
		case m.SenderID != nil:
			peer = m.ReceiverID
		case m.ReservationID != nil:
			peer = reservationPeers[*m.ReservationID]
		}
		if peer == 0 {
			continue
		}
		if _, seen := latest[peer]; !seen {
			latest[peer] = m
			order = append(order, peer)
		}
		if m.ReceiverID == userID && !m.Read {
			unread[peer]++
		}
	}

	peerNames := map[uint]string{}
	if len(order) > 0 {
		var peers []models.User
		if err := conn.Where("id IN ?", order).Find(&peers).Error; err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
		}
		for _, u := range peers {
			peerNames[u.ID] = u.Name
		}
	}

	conversations := make([]types.APIResponseConversation, 0, len(order))
	for _, peer := range order {
		entry := types.APIResponseConversation{
			PeerID:      peer,
			PeerName:    peerNames[peer],
			LastMessage: latest[peer],
			Unread:      unread[peer],
		}
		if active, err := ActiveReservation(userID, peer); err == nil && active != nil {
			entry.Reservation = active
		}
		conversations = append(conversations, entry)
	}
	return conversations, nil
}

// Thread pages backwards through the messages between the user and a peer,
// id-cursored, and returns the page in chronological order. System messages
// scoped to the pair's reservations ride along.
func Thread(userID uint, params *types.ThreadQueryParams) ([]models.Message, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultThreadLimit
	}
	if limit > MaxThreadLimit {
		limit = MaxThreadLimit
	}

	pair, err := PairReservations(userID, params.PeerID)
	if err != nil {
		return nil, err
	}
	pairIDs := make([]uint, 0, len(pair))
	for _, r := range pair {
		pairIDs = append(pairIDs, r.ID)
	}

	conn := db.GetDb()
	query := conn.Model(&models.Message{})
	direct := "(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)"
	if len(pairIDs) > 0 {
		query = query.Where(
			direct+" OR (is_system = ? AND receiver_id IN ? AND reservation_id IN ?)",
			userID, params.PeerID, params.PeerID, userID,
			true, []uint{userID, params.PeerID}, pairIDs,
		)
	} else {
		query = query.Where(direct, userID, params.PeerID, params.PeerID, userID)
	}
	if params.Cursor > 0 {
		query = query.Where("id < ?", params.Cursor)
	}

	var page []models.Message
	if err := query.Order("id DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}
