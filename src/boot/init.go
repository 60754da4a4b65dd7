package boot

import (
	"hbs/src/common"
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/lib"
	"hbs/src/models"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Reservation{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go lib.KafkaCreateTopics(common.TransitionsTopic)
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(common.ExpireStaleReservations, time.Hour)
	if err != nil {
		log.Printf("Error scheduling expiry job: %s\n", err.Error())
		return
	}
	log.Printf("Expiry job scheduled every hour, TTL %dh, job ID: %s\n", config.PENDING_RESERVATION_TTL_HOURS, *id)
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}
