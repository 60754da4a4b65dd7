package utils

import (
	"context"
	"errors"
	"fmt"
	"hbs/src/lib"
	"hbs/src/types"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(userID uint, username string, role string) (*string, error) {
	expiry := time.Now().Add(24 * time.Hour)
	claims := &types.Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return nil, err
	}
	return &tokenString, nil
}

func VerifyJWT(tokenString string) (*types.Claims, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, types.ErrUnauthenticated
	}
	return claims, nil
}

// ErrorStatus translates the shared error taxonomy into HTTP statuses.
// Unknown errors fall through as a bad request rather than leaking internals
// as a 500.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, types.ErrResourceUnavailable):
		return http.StatusConflict
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

const typingTTL = 5 * time.Second

func typingKey(senderID uint, receiverID uint) string {
	return fmt.Sprintf("typing:%d:%d", senderID, receiverID)
}

// SetTypingState records a short-lived typing indicator so late pollers see
// it too. The key expires on its own; stop just drops it early.
func SetTypingState(ctx context.Context, senderID uint, receiverID uint, isTyping bool) error {
	rdb := lib.GetRedisClient()
	if rdb == nil {
		return nil
	}
	key := typingKey(senderID, receiverID)
	if !isTyping {
		return rdb.Del(ctx, key).Err()
	}
	return rdb.Set(ctx, key, "1", typingTTL).Err()
}

func IsTyping(ctx context.Context, senderID uint, receiverID uint) bool {
	rdb := lib.GetRedisClient()
	if rdb == nil {
		return false
	}
	n, err := rdb.Exists(ctx, typingKey(senderID, receiverID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
