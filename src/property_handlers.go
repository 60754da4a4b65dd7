package main

import (
	"hbs/src/common"
	"hbs/src/types"
	"hbs/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func propertyRoutes(g *gin.RouterGroup) {
	properties := g.Group("/properties")
	properties.
		POST("", func(ctx *gin.Context) {
			var body types.CreatePropertyRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			property, err := common.CreateProperty(&body, userID)
			if err != nil {
				log.Printf("Error on CreateProperty: %s\n", err.Error())
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"property": property})
		}).
		GET("", func(ctx *gin.Context) {
			userID := ctx.GetUint("id")
			list, err := common.ListOwnProperties(userID)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"properties": list})
		}).
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			property, err := common.GetProperty(params.ID)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"property": property})
		}).
		PATCH("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdatePropertyRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			property, err := common.UpdateProperty(params.ID, userID, &body)
			if err != nil {
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"property": property})
		})
}
