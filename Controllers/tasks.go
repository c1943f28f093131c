package Controllers

import (
	"Gestora/Models"
	"Gestora/middleware"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TaskController handles task-related API endpoints
type TaskController struct {
	DB *gorm.DB
}

// NewTaskController creates a new TaskController
func NewTaskController(db *gorm.DB) *TaskController {
	return &TaskController{DB: db}
}

type TaskRequest struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	DeadlineValue int       `json:"deadlineValue" validate:"required,min=1"`
	DeadlineType  string    `json:"deadlineType" validate:"required,oneof=days hours"`
	ResponsibleID uint      `json:"responsibleId" validate:"required"`
	Participants  []uint    `json:"participants"`
}

// visibleTasks scopes a query to what the user may see. Employees only see
// tasks where they are the responsible party or a participant.
func (tc *TaskController) visibleTasks(user Models.User) *gorm.DB {
	query := tc.DB.Preload("Comments")
	if user.IsAdmin() {
		return query
	}
	like := `%` + strconv.Itoa(int(user.ID)) + `%`
	return query.Where("responsible_id = ? OR json_participants LIKE ?", user.ID, like)
}

// loadVisibleTask fetches one task and applies the membership check in Go,
// since the LIKE scope above can over-match on substring ids.
func (tc *TaskController) loadVisibleTask(c *fiber.Ctx, id int) (*Models.Task, error) {
	var task Models.Task
	if err := tc.DB.Preload("Comments").First(&task, id).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && !task.IsMember(user.ID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not have access to this task"})
	}
	return &task, nil
}

// GetTasks retrieves all tasks visible to the current user
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var tasks []Models.Task
	if err := tc.visibleTasks(user).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	// Filter out LIKE over-matches for employees
	if !user.IsAdmin() {
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.IsMember(user.ID) {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	return c.JSON(tasks)
}

// GetTask retrieves a single task by ID
func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	task, errResp := tc.loadVisibleTask(c, id)
	if task == nil {
		return errResp
	}
	return c.JSON(task)
}

// CreateTask creates a new task in the Open state
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Employees may only create tasks they belong to
	if !user.IsAdmin() && req.ResponsibleID != user.ID && !containsID(req.Participants, user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Employees can only create tasks they are assigned to"})
	}

	task := Models.Task{
		Title:         req.Title,
		Description:   req.Description,
		StartDate:     req.StartDate,
		DeadlineValue: req.DeadlineValue,
		DeadlineType:  req.DeadlineType,
		Status:        Models.StatusOpen,
		ResponsibleID: req.ResponsibleID,
		CreatedByID:   user.ID,
	}
	if err := task.SetParticipants(req.Participants); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid participants"})
	}
	task.Recompute()

	if err := tc.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// UpdateTask merges the request into an existing task and recomputes the
// derived delivery date
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	task, errResp := tc.loadVisibleTask(c, id)
	if task == nil {
		return errResp
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := middleware.CurrentUser(c)

	task.Title = req.Title
	task.Description = req.Description
	if user.IsAdmin() {
		// Only administrators reassign or reschedule
		task.StartDate = req.StartDate
		task.DeadlineValue = req.DeadlineValue
		task.DeadlineType = req.DeadlineType
		task.ResponsibleID = req.ResponsibleID
		if err := task.SetParticipants(req.Participants); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid participants"})
		}
	}
	task.Recompute()

	if err := tc.DB.Save(task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}

	return c.JSON(task)
}

// DeleteTask removes a task and its comments
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	task, errResp := tc.loadVisibleTask(c, id)
	if task == nil {
		return errResp
	}

	tc.DB.Where("task_id = ?", task.ID).Delete(&Models.Comment{})
	tc.DB.Delete(task)

	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus advances a task along the status chain. The same guards the
// client applies are enforced here: the requested status must be the next
// one in the chain, employees must be members, and only administrators move
// Finished tasks to Closed.
func (tc *TaskController) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !Models.ValidStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown status"})
	}

	user := middleware.CurrentUser(c)
	next := Models.NextStatus(task.Status)
	if next == "" || req.Status != next || !task.CanAdvance(&user) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Status transition not allowed"})
	}

	task.Status = next
	if next == Models.StatusClosed {
		now := time.Now()
		task.ClosedAt = &now
	}
	if err := tc.DB.Save(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update status"})
	}

	return c.JSON(task)
}

// MyTasks lists tasks where the current user is responsible or participant
func (tc *TaskController) MyTasks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var tasks []Models.Task
	if err := tc.DB.Preload("Comments").Order("created_at DESC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	mine := tasks[:0]
	for _, task := range tasks {
		if task.IsMember(user.ID) {
			mine = append(mine, task)
		}
	}

	return c.JSON(mine)
}

// MyStats returns the current user's task counts grouped by status
func (tc *TaskController) MyStats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var tasks []Models.Task
	if err := tc.DB.Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	byStatus := map[string]int{}
	total := 0
	for _, task := range tasks {
		if !task.IsMember(user.ID) {
			continue
		}
		byStatus[task.Status]++
		total++
	}

	return c.JSON(fiber.Map{
		"total":    total,
		"byStatus": byStatus,
	})
}

// GetComments lists the comments on a task
func (tc *TaskController) GetComments(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	task, errResp := tc.loadVisibleTask(c, id)
	if task == nil {
		return errResp
	}

	return c.JSON(task.Comments)
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// CreateComment appends a comment to a task. Comments are append-only.
func (tc *TaskController) CreateComment(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	task, errResp := tc.loadVisibleTask(c, id)
	if task == nil {
		return errResp
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := middleware.CurrentUser(c)
	comment := Models.Comment{
		TaskID:   task.ID,
		UserID:   user.ID,
		UserName: user.Name,
		Text:     req.Text,
	}
	if err := tc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create comment"})
	}

	tc.DB.Model(&Models.Task{}).Where("id = ?", task.ID).Update("updated_at", time.Now())

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment removes a comment. Admin only, since comments are
// append-only for employees.
func (tc *TaskController) DeleteComment(c *fiber.Ctx) error {
	commentID, err := strconv.Atoi(c.Params("cid"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment ID"})
	}

	var comment Models.Comment
	if err := tc.DB.First(&comment, commentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
	}

	tc.DB.Delete(&comment)

	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
