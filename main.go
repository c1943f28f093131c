package main

import (
	"Gestora/CronJobs"
	"Gestora/FiberConfig"
	"Gestora/Models"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	Models.Connect()

	// Deadline watcher marks overdue tasks in the background
	deadlineChecker := CronJobs.NewDeadlineChecker(true)
	if err := deadlineChecker.Start(); err != nil {
		log.Printf("Failed to start deadline checker: %v", err)
	}

	FiberConfig.FiberConfig()
}
