package Controllers

import (
	"Gestora/CronJobs"
	"Gestora/Models"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// nearDeadlineWindow is how far ahead the dashboard looks for tasks that
// are about to run out of time.
const nearDeadlineWindow = 48 * time.Hour

// ReportController handles admin statistics and report export endpoints
type ReportController struct {
	DB *gorm.DB
}

// NewReportController creates a new ReportController
func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// TaskStatistics is the aggregate report shape for the admin dashboard
type TaskStatistics struct {
	TotalTasks            int             `json:"totalTasks"`
	ActiveTasks           int             `json:"activeTasks"`
	CompletedTasks        int             `json:"completedTasks"`
	OverdueTasks          int             `json:"overdueTasks"`
	TasksByStatus         map[string]int  `json:"tasksByStatus"`
	TasksByUser           map[uint]int    `json:"tasksByUser"`
	AverageCompletionTime float64         `json:"averageCompletionTime"`
	DelayRate             float64         `json:"delayRate"`
}

// UserPerformance summarizes one user's task load for the dashboard
type UserPerformance struct {
	UserID         uint    `json:"userId"`
	UserName       string  `json:"userName"`
	CompletedTasks int     `json:"completedTasks"`
	ActiveTasks    int     `json:"activeTasks"`
	OverdueTasks   int     `json:"overdueTasks"`
	CompletionRate float64 `json:"completionRate"`
}

func (rc *ReportController) computeStatistics(tasks []Models.Task) TaskStatistics {
	stats := TaskStatistics{
		TasksByStatus: map[string]int{},
		TasksByUser:   map[uint]int{},
	}

	var totalCompletion time.Duration
	closedCount := 0
	delayed := 0

	for _, task := range tasks {
		stats.TotalTasks++
		stats.TasksByStatus[task.Status]++
		stats.TasksByUser[task.ResponsibleID]++

		switch task.Status {
		case Models.StatusClosed:
			stats.CompletedTasks++
		case Models.StatusOverdue:
			stats.OverdueTasks++
			stats.ActiveTasks++
		default:
			stats.ActiveTasks++
		}

		if task.ClosedAt != nil {
			totalCompletion += task.ClosedAt.Sub(task.CreatedAt)
			closedCount++
			if task.ClosedAt.After(task.DeliveryDate) {
				delayed++
			}
		}
	}

	if closedCount > 0 {
		stats.AverageCompletionTime = totalCompletion.Hours() / float64(closedCount)
		stats.DelayRate = float64(delayed) / float64(closedCount)
	}

	return stats
}

// Stats returns aggregate task statistics
func (rc *ReportController) Stats(c *fiber.Ctx) error {
	var tasks []Models.Task
	if err := rc.DB.Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	return c.JSON(rc.computeStatistics(tasks))
}

// Dashboard returns statistics plus per-user performance and the most
// recent tasks
func (rc *ReportController) Dashboard(c *fiber.Ctx) error {
	var tasks []Models.Task
	if err := rc.DB.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	var users []Models.User
	if err := rc.DB.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}

	performance := make([]UserPerformance, 0, len(users))
	for _, user := range users {
		perf := UserPerformance{UserID: user.ID, UserName: user.Name}
		total := 0
		for _, task := range tasks {
			if !task.IsMember(user.ID) {
				continue
			}
			total++
			switch task.Status {
			case Models.StatusClosed:
				perf.CompletedTasks++
			case Models.StatusOverdue:
				perf.OverdueTasks++
				perf.ActiveTasks++
			default:
				perf.ActiveTasks++
			}
		}
		if total > 0 {
			perf.CompletionRate = float64(perf.CompletedTasks) / float64(total)
		}
		performance = append(performance, perf)
	}

	recent := tasks
	if len(recent) > 10 {
		recent = recent[:10]
	}

	nearSet := map[uint]bool{}
	for _, id := range CronJobs.NearDeadlineTaskIDs(nearDeadlineWindow) {
		nearSet[id] = true
	}
	nearDeadline := make([]Models.Task, 0, len(nearSet))
	for _, task := range tasks {
		if nearSet[task.ID] {
			nearDeadline = append(nearDeadline, task)
		}
	}

	return c.JSON(fiber.Map{
		"stats":        rc.computeStatistics(tasks),
		"performance":  performance,
		"recentTasks":  recent,
		"nearDeadline": nearDeadline,
	})
}

// ExportTasksReport writes all tasks into an xlsx workbook and streams it
func (rc *ReportController) ExportTasksReport(c *fiber.Ctx) error {
	var tasks []Models.Task
	if err := rc.DB.Order("created_at").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	var users []Models.User
	rc.DB.Find(&users)
	names := map[uint]string{}
	for _, user := range users {
		names[user.ID] = user.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Tasks"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"10B981"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	headers := []string{"ID", "Title", "Status", "Responsible", "Start Date", "Delivery Date", "Closed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, task := range tasks {
		closedAt := ""
		if task.ClosedAt != nil {
			closedAt = task.ClosedAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			task.ID,
			task.Title,
			task.Status,
			names[task.ResponsibleID],
			task.StartDate.Format("2006-01-02 15:04"),
			task.DeliveryDate.Format("2006-01-02 15:04"),
			closedAt,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "D", "G", 20)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	filename := fmt.Sprintf("tasks_report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buffer.Bytes())
}
