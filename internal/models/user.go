package models

import (
	"regexp"
	"time"

	"github.com/straintree/straintree-backend/internal/apperror"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if len(u.Username) < 3 {
		return apperror.Validation("Username must be at least 3 characters long")
	}
	if !emailRe.MatchString(u.Email) {
		return apperror.Validation("Invalid email format")
	}
	return nil
}
