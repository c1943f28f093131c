package Controllers

import (
	"Gestora/Models"
	"Gestora/middleware"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const avatarDir = "avatars"

// UserController handles user management endpoints
type UserController struct {
	DB *gorm.DB
}

// NewUserController creates a new UserController
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GetUsers retrieves all users
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	var users []Models.User
	if err := uc.DB.Order("name").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}
	return c.JSON(users)
}

// GetUser retrieves a single user by ID
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// GetUsersByRole lists users filtered by role
func (uc *UserController) GetUsersByRole(c *fiber.Ctx) error {
	role := c.Params("role")

	var users []Models.User
	if err := uc.DB.Where("role = ?", role).Order("name").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}
	return c.JSON(users)
}

type InviteUserRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// CreateUser invites a new user: the account is created with a temporary
// password, flagged for forced password change, and an invite link is
// emailed.
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var req InviteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing Models.User
	if err := uc.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
	}

	role := req.Role
	if role == "" {
		role = Models.RoleEmployee
	}

	tempPassword := GenerateTempPassword()
	user := Models.User{
		Name:               req.Name,
		Email:              req.Email,
		Role:               role,
		Position:           req.Position,
		Department:         req.Department,
		MustChangePassword: true,
	}
	if err := user.SetPassword(tempPassword); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	invite := Models.InviteToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := uc.DB.Create(&invite).Error; err != nil {
		log.Printf("Error creating invite token: %v", err)
	} else {
		sendInviteEmail(user, invite.Token, tempPassword)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type UpdateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// UpdateUser updates a user's profile fields
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	user.Position = req.Position
	user.Department = req.Department

	if err := uc.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(user)
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN EMPLOYEE"`
}

// ChangeRole switches a user between Admin and Employee
func (uc *UserController) ChangeRole(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user.Role = req.Role
	if err := uc.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update role"})
	}

	return c.JSON(user)
}

// ResetUserPassword issues a fresh temporary password for a user and flags
// the account for a forced change on next login. The temporary password is
// emailed, never returned in the response.
func (uc *UserController) ResetUserPassword(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	tempPassword := GenerateTempPassword()
	if err := user.SetPassword(tempPassword); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	user.MustChangePassword = true
	if err := uc.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	sendTempPasswordEmail(user, tempPassword)

	return c.JSON(fiber.Map{"message": "Temporary password issued"})
}

// DeleteUser removes a user account
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	actor := middleware.CurrentUser(c)
	if actor.ID == uint(id) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	uc.DB.Delete(&user)

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// UploadAvatar stores a resized avatar image for the user
func (uc *UserController) UploadAvatar(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing avatar file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not read avatar file"})
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported image format"})
	}

	// Square-crop and shrink so avatars stay small on disk
	thumb := imaging.Fill(img, 256, 256, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(avatarDir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store avatar"})
	}
	outputPath := filepath.Join(avatarDir, fmt.Sprintf("user_%d.jpg", user.ID))
	if err := imaging.Save(thumb, outputPath, imaging.JPEGQuality(85)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store avatar"})
	}

	user.Avatar = outputPath
	if err := uc.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(user)
}

// GetAvatar serves the stored avatar image
func (uc *UserController) GetAvatar(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if user.Avatar == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No avatar set"})
	}

	return c.SendFile(user.Avatar)
}
