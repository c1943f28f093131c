package CronJobs

import (
	"fmt"
	"log"
	"time"

	"Gestora/Models"

	"github.com/robfig/cron/v3"
)

// DeadlineChecker periodically marks tasks whose delivery date has passed
// as Overdue. Overdue sits outside the forward status chain and is never
// assigned by the lifecycle controller itself.
type DeadlineChecker struct {
	cronScheduler  *cron.Cron
	runImmediately bool
	jobID          cron.EntryID
}

// NewDeadlineChecker creates a new deadline checker
func NewDeadlineChecker(runImmediately bool) *DeadlineChecker {
	return &DeadlineChecker{
		cronScheduler:  cron.New(cron.WithSeconds()),
		runImmediately: runImmediately,
	}
}

// Start initiates the deadline checker cron job
func (d *DeadlineChecker) Start() error {
	var err error
	d.jobID, err = d.cronScheduler.AddFunc("0 */10 * * * *", func() {
		log.Println("Running scheduled deadline check")
		d.runDeadlineCheck()
	})

	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	d.cronScheduler.Start()
	fmt.Println("Deadline check scheduler started - will run every 10 minutes")

	if d.runImmediately {
		fmt.Println("Running initial deadline check")
		d.runDeadlineCheck()
	}

	return nil
}

// Stop terminates the deadline checker
func (d *DeadlineChecker) Stop() {
	if d.cronScheduler != nil {
		d.cronScheduler.Stop()
		log.Println("Deadline check scheduler stopped")
	}
}

func (d *DeadlineChecker) runDeadlineCheck() {
	now := time.Now()

	var tasks []Models.Task
	if err := Models.DB.
		Where("delivery_date < ? AND status NOT IN ?", now, []string{Models.StatusClosed, Models.StatusFinished, Models.StatusOverdue}).
		Find(&tasks).Error; err != nil {
		log.Printf("Error fetching tasks for deadline check: %v", err)
		return
	}

	overdueCount := 0
	for _, task := range tasks {
		task.Status = Models.StatusOverdue
		if err := Models.DB.Save(&task).Error; err != nil {
			log.Printf("Error marking task %d overdue: %v", task.ID, err)
			continue
		}
		overdueCount++
	}

	if overdueCount > 0 {
		log.Printf("Deadline check completed: %d task(s) marked overdue", overdueCount)
	}
}

// NearDeadlineTaskIDs returns ids of open tasks whose delivery date falls
// within the given window. Used to flag near-deadline notifications.
func NearDeadlineTaskIDs(window time.Duration) []uint {
	now := time.Now()

	var tasks []Models.Task
	if err := Models.DB.
		Where("delivery_date BETWEEN ? AND ? AND status NOT IN ?", now, now.Add(window), []string{Models.StatusClosed, Models.StatusOverdue}).
		Find(&tasks).Error; err != nil {
		log.Printf("Error fetching near-deadline tasks: %v", err)
		return nil
	}

	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
