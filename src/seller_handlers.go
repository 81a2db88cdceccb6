package main

import (
	"net/http"
	"ticketr/src/types"
	"ticketr/src/utils"

	"github.com/gin-gonic/gin"
)

func sellerHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/seller/events", func(ctx *gin.Context) {
			organizerId := ctx.GetString("uid")
			events, err := utils.GetSellerEvents(organizerId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		PUT("/events/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			organizerId := ctx.GetString("uid")
			if err := utils.CancelEvent(params.ID, organizerId); err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
		}).
		POST("/events/:id/refunds/retry", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			organizerId := ctx.GetString("uid")
			event, err := utils.GetEvent(params.ID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			if event.OrganizerID != organizerId {
				ctx.Status(http.StatusForbidden)
				return
			}
			retried, err := utils.RetryEventRefunds(params.ID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"retried": retried}})
		}).
		GET("/events/:id/reconcile", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			organizerId := ctx.GetString("uid")
			event, err := utils.GetEvent(params.ID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			if event.OrganizerID != organizerId {
				ctx.Status(http.StatusForbidden)
				return
			}
			stored, actual, err := utils.ReconcileIssued(params.ID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"stored":     stored,
				"actual":     actual,
				"consistent": int64(stored) == actual,
			}})
		})
	return g
}
