package main

import (
	"hbs/src/common"
	"hbs/src/types"
	"hbs/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func messageRoutes(g *gin.RouterGroup) {
	messages := g.Group("/messages")
	messages.
		POST("", func(ctx *gin.Context) {
			var body types.CreateMessageRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if !crossCheckActor(ctx, body.SenderID, userID) {
				return
			}
			message, err := common.SendMessage(appBus, userID, &body)
			if err != nil {
				log.Printf("Error on SendMessage: %s\n", err.Error())
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"message": message})
		}).
		GET("/thread", func(ctx *gin.Context) {
			var query types.ThreadQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			page, err := common.Thread(userID, &query)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"messages": page})
		}).
		GET("/unread", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			count, err := common.UnreadCount(userID)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"unread": count})
		}).
		POST("/:id/read", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if err := common.MarkMessageRead(appBus, params.ID, userID); err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if err := common.DeleteMessage(params.ID, userID); err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/typing", func(ctx *gin.Context) {
			var query struct {
				PeerID uint `form:"peer" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			ctx.JSON(http.StatusOK, gin.H{"typing": utils.IsTyping(ctx, query.PeerID, userID)})
		}).
		POST("/typing", func(ctx *gin.Context) {
			var body types.TypingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if err := utils.SetTypingState(ctx, userID, body.PeerID, body.IsTyping); err != nil {
				log.Printf("Error storing typing state: %s\n", err.Error())
			}
			if appBus != nil {
				appBus.Push(body.PeerID, "typing", gin.H{"peer_id": userID, "is_typing": body.IsTyping})
			}
			ctx.Status(http.StatusNoContent)
		})

	conversations := g.Group("/conversations")
	conversations.
		GET("", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			list, err := common.ListConversations(userID)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"conversations": list})
		}).
		GET("/active", func(ctx *gin.Context) {
			var query struct {
				PeerID uint `form:"peer" binding:"required"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			active, err := common.ActiveReservation(userID, query.PeerID)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			if active == nil {
				ctx.JSON(http.StatusOK, gin.H{"reservation": nil})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"reservation": active})
		})
}
