package middlewares

import (
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"hbs/src/utils"
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) < 2 || parts[1] == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims, err := utils.VerifyJWT(parts[1])
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}

	conn := db.GetDb()
	var user models.User
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	conn.Model(&models.User{}).Where(&models.User{ID: uint(uid)}).Find(&user)

	if uint(uid) != user.ID || user.ID < 1 {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", user.Email)
	ctx.Set("id", user.ID)
	ctx.Set("uid", user.UID)
	ctx.Set("role", user.Role)
}

// SupervisorMiddleware gates the override endpoints. It assumes
// AuthMiddleware already ran.
func SupervisorMiddleware(ctx *gin.Context) {
	role := ctx.GetString("role")
	if role != string(types.ROLE_SUPERVISOR) {
		ctx.AbortWithStatus(403)
		return
	}
}
