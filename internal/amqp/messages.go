package amqp

import (
	"encoding/json"
	"time"
)

// EventType names an expense lifecycle event. It doubles as the routing key.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after an expense is created, updated or deleted.
// Consumers fetch the current expense themselves when they need its fields.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ExpenseID int64     `json:"expenseId"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(t EventType, expenseID, userID int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
