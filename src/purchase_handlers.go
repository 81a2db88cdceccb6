package main

import (
	"net/http"
	"ticketr/src/types"
	"ticketr/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func purchaseHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events/:id/reserve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetString("uid")
			ticket, err := utils.ReserveTicket(ctx, params.ID, userId)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		POST("/tickets/:id/confirm", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ConfirmPurchaseRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticketId := uuid.MustParse(params.ID)
			ticket, err := utils.ConfirmPurchase(ctx, ticketId, body.PaymentRef)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		})
	return g
}
