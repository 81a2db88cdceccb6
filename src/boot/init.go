package boot

import (
	"log"
	"ticketr/src/common"
	"ticketr/src/config"
	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Ticket{},
		&models.RefundInstruction{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go lib.KafkaCreateTopics(lib.TopicChangeEvents, lib.TopicRefundInstructions)
	go common.RefundInstructionsConsumer()
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	go RecoverExpiryJobs()
	_, err = lib.CreateCronJob(config.RefundRetryInterval(), utils.RetryFailedRefunds)
	if err != nil {
		log.Printf("Error scheduling refund retry sweep: %s\n", err.Error())
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// RecoverExpiryJobs requeues reservation expiries lost to a restart. Jobs
// already past due run right away; a ticket that moved on since is a no-op
// inside ReleaseExpiredTicket.
func RecoverExpiryJobs() error {
	d := db.GetDb()
	var jobTasks []models.JobTask
	err := d.
		Model(&models.JobTask{}).
		Where(&models.JobTask{Status: "pending", JobType: "ReservationExpiry"}).
		Order("runs_at asc").
		Limit(1000).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		if jobTask.TicketID == nil {
			continue
		}
		ticketId := *jobTask.TicketID
		jobId := jobTask.ID
		_, err := lib.CreateOneTimeJob(jobTask.RunsAt, func() {
			if err := utils.ReleaseExpiredTicket(ticketId); err != nil {
				log.Printf("Error releasing expired Ticket [%s]: %s\n", ticketId.String(), err.Error())
				return
			}
			markRecoveredJobDone(jobId)
		})
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
	}
	return nil
}

func markRecoveredJobDone(jobId uuid.UUID) {
	d := db.GetDb()
	err := d.
		Model(&models.JobTask{}).
		Where("id = ? AND status = ?", jobId, "pending").
		Update("status", "done").
		Error
	if err != nil {
		log.Printf("Error updating job status [%s]: %s\n", jobId.String(), err.Error())
	}
}
