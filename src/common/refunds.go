package common

import (
	"context"
	"log"

	"ticketr/src/config"
	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/monitoring"
	"ticketr/src/types"
	"ticketr/src/utils"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// RefundInstructionsConsumer executes queued refund instructions off the
// broker. Execution is idempotent per instruction: a re-delivered message for
// an instruction already in dispatched state is dropped.
func RefundInstructionsConsumer() {
	consumer := lib.NewKafkaTopicConsumer(lib.TopicRefundInstructions, "refund-workers", handleRefundInstruction)
	consumer.Listen()
}

func handleRefundInstruction(payload string) {
	raw := gjson.Get(payload, "instruction_id").String()
	instructionId, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("Bad refund instruction payload: %s\n", payload)
		return
	}
	ExecuteRefundInstruction(instructionId)
}

// ExecuteRefundInstruction performs the money movement for one instruction.
// Instructions without a payment reference cover reservations that were never
// charged; those complete without touching the payment collaborator.
func ExecuteRefundInstruction(instructionId uuid.UUID) {
	d := db.GetDb()
	var instruction models.RefundInstruction
	if err := d.Where("id = ?", instructionId).First(&instruction).Error; err != nil {
		log.Printf("Error loading refund instruction [%s]: %s\n", instructionId.String(), err.Error())
		return
	}
	if instruction.Status == types.REFUND_DISPATCHED {
		return
	}
	if instruction.PaymentRef != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.PaymentTimeout())
		defer cancel()
		processor := lib.GetPaymentProcessor()
		ref, err := processor.Refund(ctx, *instruction.PaymentRef, instruction.Amount, instruction.Currency)
		if err != nil {
			log.Printf("Error refunding instruction [%s]: %s\n", instructionId.String(), err.Error())
			utils.MarkRefundFailed(instructionId, err)
			monitoring.RecordRefundDispatch("failed")
			return
		}
		log.Printf("Refund [%s] completed for instruction [%s]\n", ref, instructionId.String())
	}
	err := d.
		Model(&models.RefundInstruction{}).
		Where("id = ?", instructionId).
		Updates(map[string]any{
			"status":     types.REFUND_DISPATCHED,
			"last_error": nil,
		}).
		Error
	if err != nil {
		log.Printf("Error updating refund instruction [%s]: %s\n", instructionId.String(), err.Error())
		return
	}
	monitoring.RecordRefundDispatch("dispatched")
}
