package main

import (
	"errors"
	"hbs/src/common"
	"hbs/src/middlewares"
	"hbs/src/types"
	"hbs/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// crossCheckActor rejects a request whose optional client-supplied actor id
// disagrees with the verified identity. The verified identity always wins.
func crossCheckActor(ctx *gin.Context, claimed *uint, verified uint) bool {
	if claimed != nil && *claimed != verified {
		ctx.JSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
		return false
	}
	return true
}

// reservationError reports a failed transition. The reservation's current
// status rides along so optimistic clients can reconcile.
func reservationError(ctx *gin.Context, err error, status string) {
	payload := gin.H{"error": err.Error()}
	if status != "" && (errors.Is(err, types.ErrInvalidTransition) || errors.Is(err, types.ErrForbidden)) {
		payload["status"] = status
	}
	ctx.JSON(utils.ErrorStatus(err), payload)
}

func reservationRoutes(g *gin.RouterGroup) {
	reservations := g.Group("/reservations")
	reservations.
		POST("", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if !crossCheckActor(ctx, body.RequesterID, userID) {
				return
			}
			reservation, err := common.RequestReservation(&body, userID)
			if err != nil {
				log.Printf("Error on RequestReservation: %s\n", err.Error())
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"reservation": reservation})
		}).
		GET("", func(ctx *gin.Context) {
			var filters types.ReservationQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			list, err := common.ListReservations(userID, &filters)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"reservations": list})
		}).
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			supervisor := ctx.GetString("role") == string(types.ROLE_SUPERVISOR)
			reservation, err := common.GetReservation(params.ID, userID, supervisor)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"reservation": reservation})
		}).
		PATCH("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			reservation, err := common.UpdateReservation(params.ID, userID, &body)
			if err != nil {
				status := ""
				if reservation != nil {
					status = reservation.Status
				}
				reservationError(ctx, err, status)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"reservation": reservation})
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			if err := common.DeleteReservation(params.ID, userID); err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/:id/accept", transitionHandler(types.TRANSITION_ACCEPTED, false)).
		POST("/:id/confirm", transitionHandler(types.TRANSITION_ACCEPTED, false)).
		POST("/:id/decline", declineHandler(false)).
		POST("/:id/cancel", transitionHandler(types.TRANSITION_CANCELED, false))

	override := reservations.Group("")
	override.Use(middlewares.SupervisorMiddleware)
	override.
		POST("/:id/approve", transitionHandler(types.TRANSITION_ACCEPTED, true)).
		POST("/:id/refuse", declineHandler(true))
}

func transitionHandler(kind types.TransitionKind, supervisor bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var body types.TransitionRequestBody
		if ctx.Request.ContentLength > 0 {
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		userID := ctx.GetUint("id")
		if !crossCheckActor(ctx, body.ActorID, userID) {
			return
		}
		var err error
		var reservation any
		switch kind {
		case types.TRANSITION_ACCEPTED:
			r, terr := common.AcceptReservation(params.ID, userID, supervisor)
			reservation, err = r, terr
			if terr != nil && r != nil {
				reservationError(ctx, terr, r.Status)
				return
			}
		case types.TRANSITION_CANCELED:
			r, terr := common.CancelReservation(params.ID, userID, supervisor)
			reservation, err = r, terr
			if terr != nil && r != nil {
				reservationError(ctx, terr, r.Status)
				return
			}
		}
		if err != nil {
			ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"reservation": reservation})
	}
}

func declineHandler(supervisor bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var body types.DeclineReservationRequestBody
		if ctx.Request.ContentLength > 0 {
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		userID := ctx.GetUint("id")
		if !crossCheckActor(ctx, body.ActorID, userID) {
			return
		}
		reservation, err := common.DeclineReservation(params.ID, userID, body.Reason, supervisor)
		if err != nil {
			status := ""
			if reservation != nil {
				status = reservation.Status
			}
			reservationError(ctx, err, status)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"reservation": reservation})
	}
}
