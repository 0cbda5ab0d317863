// Package expenses implements owner-scoped expense operations. Every call on
// an existing expense loads it and checks ownership before touching it.
package expenses

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"budgetwise/internal/amqp"
	"budgetwise/internal/apperrors"
	"budgetwise/internal/auth"
	"budgetwise/internal/cache"
	"budgetwise/internal/log"
	"budgetwise/internal/models"
	"budgetwise/internal/storage"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 255

	// MaxAmount bounds a single expense so monthly totals stay finite.
	MaxAmount = 1e12
)

// Client-facing messages.
const (
	MsgInvalidExpenseData = "Invalid expense data. Ensure all required fields are filled correctly."
	MsgInvalidExpenseID   = "Invalid expense ID."
	MsgExpenseUpdated     = "Expense updated successfully."
	MsgInvalidPeriod      = "Invalid summary period."
	MsgAccountNotFound    = "Account no longer exists."
)

// Store is the owner-agnostic expense persistence the service builds on.
type Store interface {
	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ExpenseOwner(ctx context.Context, id int64) (int64, error)
	ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	NameTotalsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.NameTotal, error)
}

// Input carries the client-editable fields of an expense.
type Input struct {
	Name        string      `json:"name"`
	Amount      float64     `json:"amount"`
	Date        models.Date `json:"date"`
	Description string      `json:"description"`
}

// Service performs expense operations on behalf of an authenticated user.
type Service struct {
	store  Store
	guard  *auth.Guard
	cache  cache.Cache[models.Expense]
	events amqp.Publisher
	logger *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches expenses by ID.
func WithCache(c cache.Cache[models.Expense]) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher publishes lifecycle events after each mutation.
func WithPublisher(p amqp.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger used for cache and publishing failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent(log.ComponentExpense) }
}

// NewService creates a Service. Without options it uses no cache and
// publishes nothing.
func NewService(store Store, guard *auth.Guard, opts ...Option) *Service {
	s := &Service{
		store:  store,
		guard:  guard,
		cache:  cache.Nop[models.Expense]{},
		events: amqp.Nop{},
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's expenses, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Expense, error) {
	items, err := s.store.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list expenses", err)
	}
	return items, nil
}

// Get returns one of the user's expenses.
func (s *Service) Get(ctx context.Context, userID, id int64) (*models.Expense, error) {
	return s.load(ctx, userID, id)
}

// Create validates the input and stores a new expense owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*models.Expense, error) {
	e, err := in.toExpense()
	if err != nil {
		return nil, err
	}
	e.UserID = userID

	err = s.store.CreateExpense(ctx, &e)
	if errors.Is(err, storage.ErrUnknownUser) {
		// The token outlived its account.
		return nil, apperrors.New(apperrors.CodeUnauthenticated, MsgAccountNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "create expense", err)
	}

	s.cacheSet(ctx, e)
	s.publish(ctx, amqp.EventExpenseCreated, e.ID, userID)
	return &e, nil
}

// Update replaces every editable field of one of the user's expenses.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (*models.Expense, error) {
	next, err := in.toExpense()
	if err != nil {
		return nil, err
	}

	current, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next.ID = current.ID
	next.UserID = current.UserID
	next.CreatedAt = current.CreatedAt

	err = s.store.UpdateExpense(ctx, &next)
	if errors.Is(err, storage.ErrNotFound) {
		s.cacheDelete(ctx, id)
		return nil, apperrors.New(apperrors.CodeNotFound, auth.MsgExpenseNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "update expense", err)
	}

	s.cacheDelete(ctx, id)
	s.publish(ctx, amqp.EventExpenseUpdated, id, userID)
	return &next, nil
}

// Delete removes one of the user's expenses.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.load(ctx, userID, id); err != nil {
		return err
	}

	deleted, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "delete expense", err)
	}
	s.cacheDelete(ctx, id)
	if !deleted {
		return apperrors.New(apperrors.CodeNotFound, auth.MsgExpenseNotFound)
	}

	s.publish(ctx, amqp.EventExpenseDeleted, id, userID)
	return nil
}

// load fetches an expense and checks that userID owns it. A missing expense
// and someone else's expense produce the same NotFound error.
//
// Rows can disappear without passing through this service (a deleted user
// takes their expenses along), so a cache hit is only served after the row's
// owner is confirmed in the store.
func (s *Service) load(ctx context.Context, userID, id int64) (*models.Expense, error) {
	if id <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, MsgInvalidExpenseID)
	}

	key := cacheKey(id)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache get failed", log.FieldCacheKey, key, log.FieldError, err)
	}
	if ok {
		owner, err := s.store.ExpenseOwner(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.cacheDelete(ctx, id)
			return nil, apperrors.New(apperrors.CodeNotFound, auth.MsgExpenseNotFound)
		case err != nil:
			return nil, apperrors.Wrap(apperrors.CodeInternal, "expense owner", err)
		case owner == cached.UserID:
			if err := s.guard.CheckOwnership(&cached, userID); err != nil {
				return nil, err
			}
			return &cached, nil
		}
		s.cacheDelete(ctx, id)
	}

	e, err := s.store.GetExpense(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "get expense", err)
	}
	if err := s.guard.CheckOwnership(e, userID); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, *e)
	return e, nil
}

func (s *Service) cacheSet(ctx context.Context, e models.Expense) {
	key := cacheKey(e.ID)
	if err := s.cache.Set(ctx, key, e); err != nil {
		s.logger.WarnContext(ctx, "cache set failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

func (s *Service) cacheDelete(ctx context.Context, id int64) {
	key := cacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "cache delete failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

func (s *Service) publish(ctx context.Context, t amqp.EventType, expenseID, userID int64) {
	if err := s.events.Publish(ctx, amqp.NewExpenseEvent(t, expenseID, userID)); err != nil {
		s.logger.WarnContext(ctx, "publish expense event failed",
			log.FieldEventType, string(t),
			log.FieldExpenseID, expenseID,
			log.FieldError, err,
		)
	}
}

func cacheKey(id int64) string {
	return "expense:" + strconv.FormatInt(id, 10)
}

// toExpense validates the input and returns the expense it describes.
func (in Input) toExpense() (models.Expense, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)

	var fields []string
	switch {
	case name == "":
		fields = append(fields, "name is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		fields = append(fields, "name must be at most 100 characters")
	}
	switch {
	case !(in.Amount > 0):
		fields = append(fields, "amount must be greater than zero")
	case in.Amount > MaxAmount:
		fields = append(fields, "amount must be at most 1000000000000")
	}
	if in.Date.IsZero() {
		fields = append(fields, "date is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		fields = append(fields, "description must be at most 255 characters")
	}

	if len(fields) > 0 {
		return models.Expense{}, apperrors.WithFields(apperrors.CodeValidation, MsgInvalidExpenseData, fields)
	}
	return models.Expense{
		Name:        name,
		Amount:      in.Amount,
		Date:        models.Date{Time: in.Date.UTC()},
		Description: description,
	}, nil
}
