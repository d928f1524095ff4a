package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the identity record read by the auth service: a plain value
// object with no behavior beyond password checks. Loading and storing it is
// the persistence collaborator's job.
type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Email        string    `json:"email,omitempty"`       // User's email address
	FirstName    string    `json:"first_name,omitempty"`  // First name of the user
	LastName     string    `json:"last_name,omitempty"`   // Last name of the user
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	RoleID       string    `json:"role_id,omitempty"`     // Role reference resolved by the roles repo
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user was created
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
