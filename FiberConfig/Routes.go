package FiberConfig

import (
	"Gestora/Controllers"
	"Gestora/Models"
	"Gestora/middleware"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	taskController := Controllers.NewTaskController(db)
	userController := Controllers.NewUserController(db)
	reportController := Controllers.NewReportController(db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/login", Controllers.Login)
	auth.Post("/register", Controllers.Register)
	auth.Post("/logout", Controllers.Logout)
	auth.Get("/me", middleware.Verify(""), Controllers.Me)
	auth.Post("/password", middleware.Verify(""), Controllers.ChangePassword)
	auth.Post("/forgot-password", Controllers.ForgotPassword)
	auth.Post("/reset-password", Controllers.ResetPassword)
	auth.Post("/invite/accept", Controllers.AcceptInvite)

	api := app.Group("/api")

	// Task routes
	tasks := api.Group("/tasks", middleware.Verify(""))
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", taskController.CreateTask)

	// Helper routes - place these BEFORE the ID route to avoid conflicts
	tasks.Get("/my-tasks", taskController.MyTasks)
	tasks.Get("/my-stats", taskController.MyStats)

	// ID-based routes
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)
	tasks.Patch("/:id/status", taskController.UpdateStatus)

	// Comment routes under tasks
	tasks.Get("/:id/comments", taskController.GetComments)
	tasks.Post("/:id/comments", taskController.CreateComment)
	tasks.Delete("/:id/comments/:cid", middleware.Verify(Models.RoleAdmin), taskController.DeleteComment)

	// Admin user routes
	users := api.Group("/admin/users", middleware.Verify(Models.RoleAdmin))
	users.Get("/", userController.GetUsers)
	users.Post("/", userController.CreateUser)
	users.Get("/by-role/:role", userController.GetUsersByRole)
	users.Get("/:id", userController.GetUser)
	users.Put("/:id", userController.UpdateUser)
	users.Delete("/:id", userController.DeleteUser)
	users.Patch("/:id/role", userController.ChangeRole)
	users.Patch("/:id/password", userController.ResetUserPassword)
	users.Post("/:id/avatar", userController.UploadAvatar)

	// Avatars are readable by any authenticated user
	api.Get("/users/:id/avatar", middleware.Verify(""), userController.GetAvatar)

	// Admin report routes
	admin := api.Group("/admin", middleware.Verify(Models.RoleAdmin))
	admin.Get("/stats", reportController.Stats)
	admin.Get("/dashboard", reportController.Dashboard)
	admin.Get("/reports/export", reportController.ExportTasksReport)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Fatal(app.Listen(":" + port))
}
