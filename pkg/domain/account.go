package domain

import "time"

// Account is a registered user identified by email. Only the password hash
// is ever stored; the email is immutable after registration.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedOn    time.Time `json:"created_on"`
}
