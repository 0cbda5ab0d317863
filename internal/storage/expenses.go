package storage

import (
	"context"
	"fmt"
	"time"

	"budgetwise/internal/models"
)

const expenseColumns = "id, name, amount, date, description, user_id, created_at, updated_at"

func scanExpense(s scanner) (models.Expense, error) {
	var e models.Expense
	if err := s.Scan(&e.ID, &e.Name, &e.Amount, &e.Date.Time, &e.Description, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.Expense{}, err
	}
	e.Date.Time = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// CreateExpense inserts a new expense and fills in its ID and timestamps.
// It returns ErrUnknownUser when the owner does not exist.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	now := time.Now().UTC()
	err := db.conn.QueryRowContext(ctx,
		db.rebind("INSERT INTO expenses (name, amount, date, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id"),
		e.Name, e.Amount, e.Date.UTC(), e.Description, e.UserID, now, now,
	).Scan(&e.ID)
	if err != nil && isForeignKeyViolation(err) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.Date.Time = e.Date.UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetExpense retrieves a single expense by ID regardless of owner.
func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE id = ?"),
		id,
	)

	e, err := scanExpense(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// ExpenseOwner returns the ID of the user owning an expense.
func (db *DB) ExpenseOwner(ctx context.Context, id int64) (int64, error) {
	var owner int64
	err := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT user_id FROM expenses WHERE id = ?"),
		id,
	).Scan(&owner)
	if err != nil {
		return 0, notFound(err)
	}
	return owner, nil
}

// ListExpensesByUser retrieves a user's expenses ordered by date descending.
func (db *DB) ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC"),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collect(rows, scanExpense)
}

// UpdateExpense replaces name, amount, date and description in one statement.
func (db *DB) UpdateExpense(ctx context.Context, e *models.Expense) error {
	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE expenses SET name = ?, amount = ?, date = ?, description = ?, updated_at = ? WHERE id = ?"),
		e.Name, e.Amount, e.Date.UTC(), e.Description, now, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	e.Date.Time = e.Date.UTC()
	e.UpdatedAt = now
	return nil
}

// DeleteExpense removes an expense and reports whether a row was deleted.
func (db *DB) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM expenses WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	return n > 0, nil
}

// NameTotalsBetween sums a user's expenses in [from, to) grouped by name,
// largest total first.
func (db *DB) NameTotalsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.NameTotal, error) {
	rows, err := db.conn.QueryContext(ctx,
		db.rebind(`SELECT name, SUM(amount) AS total, COUNT(*) AS count
			FROM expenses
			WHERE user_id = ? AND date >= ? AND date < ?
			GROUP BY name
			ORDER BY total DESC, name ASC`),
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("name totals: %w", err)
	}
	return collect(rows, func(s scanner) (models.NameTotal, error) {
		var nt models.NameTotal
		err := s.Scan(&nt.Name, &nt.Total, &nt.Count)
		return nt, err
	})
}
