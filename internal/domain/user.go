package domain

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Pincode      string    `json:"pincode"`
	CreatedAt    time.Time `json:"created_at"`
}

// SetPassword stores a bcrypt hash of plain. The plaintext is not kept.
func (u *User) SetPassword(plain string) error {
	if plain == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(attempt string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(attempt)) == nil
}
