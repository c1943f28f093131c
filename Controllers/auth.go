package Controllers

import (
	"Gestora/Models"
	"Gestora/email"
	"Gestora/middleware"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var validate = validator.New()

const tokenLifetime = time.Hour * 24

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// signToken issues a JWT whose issuer is the user id, matching what
// middleware.Verify expects.
func signToken(userID uint) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(userID)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.SecretKey())
}

func setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(tokenLifetime),
		HTTPOnly: true,
	})
}

// Login authenticates a user by email and password.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Bad credentials"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Bad credentials"})
	}

	now := time.Now()
	user.LastLogin = &now
	Models.DB.Save(&user)

	token, err := signToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not sign token"})
	}
	setAuthCookie(c, token)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Register creates a new employee account.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
	}

	user := Models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  Models.RoleEmployee,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := Models.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	token, err := signToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not sign token"})
	}
	setAuthCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user.
func Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(user)
}

// Logout clears the auth cookie. Token invalidation is cookie-based only.
func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password" validate:"required,min=6"`
}

// ChangePassword updates the current user's password and clears the
// must-change flag.
func ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Users carrying a forced-change flag may skip the old password check
	if !user.MustChangePassword {
		if !user.CheckPassword(req.OldPassword) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Bad credentials"})
		}
	}

	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	user.MustChangePassword = false
	if err := Models.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword issues a reset token and emails the reset link. The
// response is identical whether or not the account exists.
func ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&user).Error; err == nil {
		reset := Models.PasswordResetToken{
			Token:     uuid.NewString(),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		if err := Models.DB.Create(&reset).Error; err != nil {
			log.Printf("Error creating reset token: %v", err)
		} else {
			sendResetEmail(user, reset.Token)
		}
	}

	return c.JSON(fiber.Map{"message": "If the account exists, a reset email was sent"})
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPassword consumes a reset token and sets the new password.
func ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var reset Models.PasswordResetToken
	if err := Models.DB.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Invalid or expired token"})
	}
	if reset.Expired() {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"message": "Invalid or expired token"})
	}

	var user Models.User
	if err := Models.DB.First(&user, reset.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	user.MustChangePassword = false
	Models.DB.Save(&user)

	now := time.Now()
	reset.UsedAt = &now
	Models.DB.Save(&reset)

	return c.JSON(fiber.Map{"message": "Password reset"})
}

type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// AcceptInvite consumes an invite token, letting the invited user pick a
// password and activating the account.
func AcceptInvite(c *fiber.Ctx) error {
	var req AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var invite Models.InviteToken
	if err := Models.DB.Where("token = ?", req.Token).First(&invite).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Invalid or expired token"})
	}
	if invite.Expired() {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"message": "Invalid or expired token"})
	}

	var user Models.User
	if err := Models.DB.First(&user, invite.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	user.MustChangePassword = false
	Models.DB.Save(&user)

	now := time.Now()
	invite.UsedAt = &now
	Models.DB.Save(&invite)

	token, err := signToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not sign token"})
	}
	setAuthCookie(c, token)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

const tempPasswordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#$!"

// GenerateTempPassword returns a random 12-character temporary password.
func GenerateTempPassword() string {
	password := make([]byte, 12)
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(i % len(tempPasswordChars)))
		}
		password[i] = tempPasswordChars[n.Int64()]
	}
	return string(password)
}

func appBaseURL() string {
	if base := os.Getenv("APP_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:3000"
}

func sendResetEmail(user Models.User, token string) {
	config, ok := Models.EmailConfigFromEnv()
	if !ok {
		log.Printf("SMTP not configured, skipping reset email for %s", user.Email)
		return
	}
	message := Models.EmailMessage{
		To:      []string{user.Email},
		Subject: "Gestora - Password reset",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires in one hour.\n\n%s/?token=%s\n",
			user.Name, appBaseURL(), token),
	}
	if err := email.SendEmail(config, message); err != nil {
		log.Printf("Error sending reset email: %v", err)
	}
}

func sendTempPasswordEmail(user Models.User, tempPassword string) {
	config, ok := Models.EmailConfigFromEnv()
	if !ok {
		log.Printf("SMTP not configured, skipping password email for %s", user.Email)
		return
	}
	message := Models.EmailMessage{
		To:      []string{user.Email},
		Subject: "Gestora - Temporary password",
		Body: fmt.Sprintf("Hello %s,\n\nAn administrator reset your password. Temporary password: %s\n\nYou will be asked to choose a new one on your next sign-in at %s\n",
			user.Name, tempPassword, appBaseURL()),
	}
	if err := email.SendEmail(config, message); err != nil {
		log.Printf("Error sending password email: %v", err)
	}
}

func sendInviteEmail(user Models.User, token, tempPassword string) {
	config, ok := Models.EmailConfigFromEnv()
	if !ok {
		log.Printf("SMTP not configured, skipping invite email for %s", user.Email)
		return
	}
	message := Models.EmailMessage{
		To:      []string{user.Email},
		Subject: "Gestora - You have been invited",
		Body: fmt.Sprintf("Hello %s,\n\nAn account was created for you. Temporary password: %s\n\nSet your own password here (valid for 7 days):\n%s/?invite=%s\n",
			user.Name, tempPassword, appBaseURL(), token),
	}
	if err := email.SendEmail(config, message); err != nil {
		log.Printf("Error sending invite email: %v", err)
	}
}
