package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_DECLINED  ReservationStatus = "declined"
	RESERVATION_CANCELED  ReservationStatus = "cancelled"
)

// Terminal reports whether no transition may leave s. Confirmed is not
// terminal: the explicit cancel transition is still allowed from it.
func (s ReservationStatus) Terminal() bool {
	return s == RESERVATION_DECLINED || s == RESERVATION_CANCELED
}

type TransitionKind string

const (
	TRANSITION_REQUESTED TransitionKind = "requested"
	TRANSITION_ACCEPTED  TransitionKind = "accepted"
	TRANSITION_DECLINED  TransitionKind = "declined"
	TRANSITION_CANCELED  TransitionKind = "cancelled"
)

type UserRole string

const (
	ROLE_USER       UserRole = "user"
	ROLE_SUPERVISOR UserRole = "supervisor"
)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type CreateReservationRequestBody struct {
	PropertyID uint   `json:"property_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required,reservabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	CheckOut   string `json:"check_out" binding:"required,reservabledate,gtdate=CheckIn" time_format:"2006-01-02 15:04:05 -07:00"`
	Note       string `json:"note,omitempty" binding:"omitempty,max=1000"`
	// Optional cross-check only; the verified identity is authoritative.
	RequesterID *uint `json:"requester_id,omitempty"`
}

type UpdateReservationRequestBody struct {
	CheckIn  *string `json:"check_in,omitempty" binding:"omitempty,reservabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	CheckOut *string `json:"check_out,omitempty" binding:"omitempty,reservabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Note     *string `json:"note,omitempty" binding:"omitempty,max=1000"`
}

type DeclineReservationRequestBody struct {
	Reason  *string `json:"reason,omitempty" binding:"omitempty,max=1000"`
	ActorID *uint   `json:"actor_id,omitempty"`
}

type TransitionRequestBody struct {
	// Optional cross-check only; never a substitute for the verified identity.
	ActorID *uint `json:"actor_id,omitempty"`
}

type ReservationQueryFilters struct {
	Role   string `form:"role,omitempty" binding:"omitempty,oneof=owner requester"`
	Status string `form:"status,omitempty" binding:"omitempty,oneof=pending confirmed declined cancelled"`
}

type CreateMessageRequestBody struct {
	ReceiverID    uint   `json:"receiver_id" binding:"required"`
	Body          string `json:"body" binding:"required,max=500"`
	ReservationID *uint  `json:"reservation_id,omitempty"`
	PropertyID    *uint  `json:"property_id,omitempty"`
	// Optional cross-check only; the verified identity is authoritative.
	SenderID *uint `json:"sender_id,omitempty"`
}

type ThreadQueryParams struct {
	PeerID uint `form:"peer" binding:"required"`
	Cursor uint `form:"cursor,omitempty"`
	Limit  int  `form:"limit,omitempty"`
}

type TypingRequestBody struct {
	PeerID   uint `json:"peer_id" binding:"required"`
	IsTyping bool `json:"is_typing"`
}

type RegisterRequestBody struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreatePropertyRequestBody struct {
	Title     string `json:"title" binding:"required,max=256"`
	Available *bool  `json:"available,omitempty"`
}

type UpdatePropertyRequestBody struct {
	Title     *string `json:"title,omitempty" binding:"omitempty,max=256"`
	Available *bool   `json:"available,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type APIResponseConversation struct {
	PeerID      uint  `json:"peer_id"`
	PeerName    string `json:"peer_name,omitempty"`
	LastMessage any   `json:"last_message,omitempty"`
	Unread      int64 `json:"unread"`
	Reservation any   `json:"reservation,omitempty"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
