package Models

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	dbPath := os.Getenv("GESTORA_DB")
	if dbPath == "" {
		dbPath = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(dbPath))
	if err != nil {
		log.Println(err)
	}
	DB = connection

	// 1. Base entities first
	DB.AutoMigrate(
		&User{},
	)

	// 2. Entities with foreign keys to the base set
	DB.AutoMigrate(
		&Task{},    // References responsible user
		&Comment{}, // Belongs to Task
	)

	// 3. Token tables for invite and password-reset flows
	DB.AutoMigrate(
		&InviteToken{},
		&PasswordResetToken{},
	)

	seedDefaultAdmin()
}

// seedDefaultAdmin creates the bootstrap administrator account when the
// users table is empty, so a fresh install can be logged into.
func seedDefaultAdmin() {
	var count int64
	DB.Model(&User{}).Count(&count)
	if count > 0 {
		return
	}

	email := os.Getenv("GESTORA_ADMIN_EMAIL")
	if email == "" {
		email = "admin@gestora.local"
	}
	password := os.Getenv("GESTORA_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing default admin password: %v", err)
		return
	}

	admin := User{
		Name:               "Administrator",
		Email:              email,
		Password:           hashed,
		Role:               RoleAdmin,
		MustChangePassword: true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Error creating default admin: %v", err)
		return
	}
	log.Printf("Created default admin account %s", email)
}
