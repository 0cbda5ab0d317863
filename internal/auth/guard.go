package auth

import (
	"context"
	"strings"

	"budgetwise/internal/apperrors"
	"budgetwise/internal/models"
)

// MsgExpenseNotFound is reported for both missing and foreign expenses.
const MsgExpenseNotFound = "Expense not found."

const bearerPrefix = "bearer "

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Guard authenticates requests and checks expense ownership.
//
// A request moves from unauthenticated to authenticated once Authorize
// succeeds, and to authorized for one expense once CheckOwnership succeeds.
// Each step fails with exactly one error.
type Guard struct {
	tokens TokenVerifier
}

// NewGuard creates a Guard backed by the given verifier.
func NewGuard(tokens TokenVerifier) *Guard {
	return &Guard{tokens: tokens}
}

// Authorize extracts and verifies the bearer token in an Authorization header value.
func (g *Guard) Authorize(_ context.Context, header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Identity{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token required")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token required")
	}
	return g.tokens.Verify(token)
}

// CheckOwnership fails with NotFound unless the expense exists and belongs to userID.
func (g *Guard) CheckOwnership(expense *models.Expense, userID int64) error {
	if expense == nil || expense.UserID != userID {
		return apperrors.New(apperrors.CodeNotFound, MsgExpenseNotFound)
	}
	return nil
}
