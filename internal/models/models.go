package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered account. Password holds the bcrypt hash and
// is never serialized.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
}

// Activation is a single email-confirmation record. A user may accumulate
// several over time; the one with the largest ExpireAt is authoritative.
type Activation struct {
	ID        string `json:"id" db:"id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	ExpireAt  int64  `json:"expire_at" db:"expire_at"`
	Activated bool   `json:"activated" db:"activated"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

// Store groups items under a unique name.
type Store struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Items []Item `json:"items"`
}

// Item is a priced entry belonging to a store.
type Item struct {
	ID      int64   `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Price   float64 `json:"price" db:"price"`
	StoreID int64   `json:"store_id" db:"store_id"`
}

// ValidatePassword checks if the provided password matches the user's password
func (u *User) ValidatePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HashPassword replaces the password with its bcrypt hash.
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// Expired reports whether the activation window has passed.
func (a *Activation) Expired() bool {
	return time.Now().Unix() > a.ExpireAt
}
