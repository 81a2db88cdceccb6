package main

import (
	"errors"
	"net/http"
	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/types"
	"ticketr/src/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			userId := ctx.GetString("uid")
			tickets, err := utils.GetUserTickets(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetString("uid")
			ticket, err := utils.GetTicketDetails(uuid.MustParse(params.ID), userId)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		POST("/tickets/:id/scan", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ticketId := uuid.MustParse(params.ID)
			organizerId := ctx.GetString("uid")

			// Only the event's organizer admits ticket holders.
			d := db.GetDb()
			var ticket models.Ticket
			if err := d.Preload("Event").Where("id = ?", ticketId).First(&ticket).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ticket.Event.OrganizerID != organizerId {
				ctx.Status(http.StatusForbidden)
				return
			}

			used, err := utils.MarkTicketUsed(ticketId)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			go lib.PublishChangeEvent(types.ChangeEvent{
				Kind:     types.CHANGE_TICKET_USED,
				EventID:  used.EventID,
				TicketID: ticketId.String(),
				At:       time.Now(),
			})
			ctx.JSON(http.StatusOK, gin.H{"data": used})
		}).
		POST("/tickets/:id/refund", func(ctx *gin.Context) {
			var params types.TicketURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ticketId := uuid.MustParse(params.ID)
			userId := ctx.GetString("uid")

			d := db.GetDb()
			var refunded *models.Ticket
			var instruction *models.RefundInstruction
			err := d.Transaction(func(tx *gorm.DB) error {
				var ticket models.Ticket
				if err := tx.Where("id = ?", ticketId).First(&ticket).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				if ticket.UserID != userId {
					return types.ErrNotOwner
				}
				t, inst, err := utils.RefundTicket(tx, ticketId, types.REFUND_REQUESTED)
				if err != nil {
					return err
				}
				refunded = t
				instruction = inst
				return nil
			})
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			if instruction != nil {
				utils.DispatchRefund(instruction)
				go lib.PublishChangeEvent(types.ChangeEvent{
					Kind:     types.CHANGE_TICKET_REFUNDED,
					EventID:  refunded.EventID,
					TicketID: ticketId.String(),
					At:       time.Now(),
				})
			}
			ctx.JSON(http.StatusOK, gin.H{"data": refunded})
		})
	return g
}
