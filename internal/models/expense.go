package models

import "time"

// Expense represents a financial expense record owned by a user.
type Expense struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	Date        Date      `json:"date"`
	Description string    `json:"description"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NameTotal aggregates a month of expenses sharing the same name.
type NameTotal struct {
	Name  string
	Total float64
	Count int
}
