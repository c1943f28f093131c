package Models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

type User struct {
	gorm.Model
	Name               string `json:"name"`
	Email              string `json:"email" gorm:"uniqueIndex"`
	Password           []byte `json:"-"`
	Role               string `json:"role"`
	Position           string `json:"position"`
	Department         string `json:"department"`
	Avatar             string `json:"avatar"`
	MustChangePassword bool   `json:"mustChangePassword"`
	LastLogin          *time.Time `json:"lastLogin"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(plain)) == nil
}

// InviteToken is a single-use token mailed to a newly invited user. Until it
// is consumed the account keeps its temporary password.
type InviteToken struct {
	gorm.Model
	Token     string `gorm:"uniqueIndex"`
	UserID    uint
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// PasswordResetToken is a single-use token for the forgot-password flow.
type PasswordResetToken struct {
	gorm.Model
	Token     string `gorm:"uniqueIndex"`
	UserID    uint
	ExpiresAt time.Time
	UsedAt    *time.Time
}

func (t *InviteToken) Expired() bool {
	return t.UsedAt != nil || time.Now().After(t.ExpiresAt)
}

func (t *PasswordResetToken) Expired() bool {
	return t.UsedAt != nil || time.Now().After(t.ExpiresAt)
}
