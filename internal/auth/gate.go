// Package auth registers and logs in users, issues bearer tokens and guards
// access to owned expenses.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"budgetwise/internal/apperrors"
	"budgetwise/internal/models"
	"budgetwise/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLength = 100
	maxEmailLength    = 255
)

// Client-facing messages.
const (
	MsgRegistered         = "User registered successfully."
	MsgDuplicateEmail     = "An account with this email already exists."
	MsgDuplicateUsername  = "An account with this username already exists."
	MsgWeakPassword       = "Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one digit."
	MsgInvalidCredentials = "Invalid email or password."
	MsgInvalidRequest     = "Invalid request data."
)

// UserStore is the credential store used by the Gate.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Gate creates accounts and exchanges credentials for tokens.
type Gate struct {
	users      UserStore
	issuer     *Issuer
	bcryptCost int
}

// NewGate creates a Gate. A bcryptCost of zero uses bcrypt.DefaultCost.
func NewGate(users UserStore, issuer *Issuer, bcryptCost int) *Gate {
	return &Gate{users: users, issuer: issuer, bcryptCost: bcryptCost}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The email is checked for duplicates before
// the username, and both before the password policy.
func (g *Gate) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)

	if fields := validateRegistration(username, email, in.Password); len(fields) > 0 {
		return nil, apperrors.WithFields(apperrors.CodeValidation, MsgInvalidRequest, fields)
	}

	if err := g.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	if !IsPasswordStrong(in.Password) {
		return nil, apperrors.New(apperrors.CodeWeakPassword, MsgWeakPassword)
	}

	hash, err := HashPassword(in.Password, g.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.WithFields(apperrors.CodeValidation, MsgInvalidRequest,
			[]string{"password must be at most 72 bytes"})
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	user, err := g.users.CreateUser(ctx, username, email, hash)
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		return nil, apperrors.New(apperrors.CodeDuplicateEmail, MsgDuplicateEmail)
	case errors.Is(err, storage.ErrDuplicateUsername):
		return nil, apperrors.New(apperrors.CodeDuplicateUsername, MsgDuplicateUsername)
	case err != nil:
		return nil, apperrors.Wrap(apperrors.CodeInternal, "create user", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed token. Unknown emails and
// wrong passwords fail with the same error.
func (g *Gate) Login(ctx context.Context, in LoginInput) (string, error) {
	email := NormalizeEmail(in.Email)

	var fields []string
	if email == "" {
		fields = append(fields, "email is required")
	}
	if in.Password == "" {
		fields = append(fields, "password is required")
	}
	if len(fields) > 0 {
		return "", apperrors.WithFields(apperrors.CodeValidation, MsgInvalidRequest, fields)
	}

	user, err := g.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperrors.New(apperrors.CodeInvalidCredentials, MsgInvalidCredentials)
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "lookup user", err)
	}

	if !CheckPassword(in.Password, user.PasswordHash) {
		return "", apperrors.New(apperrors.CodeInvalidCredentials, MsgInvalidCredentials)
	}

	token, err := g.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "issue token", err)
	}
	return token, nil
}

func (g *Gate) ensureAvailable(ctx context.Context, email, username string) error {
	_, err := g.users.GetUserByEmail(ctx, email)
	if err == nil {
		return apperrors.New(apperrors.CodeDuplicateEmail, MsgDuplicateEmail)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeInternal, "lookup email", err)
	}

	_, err = g.users.GetUserByUsername(ctx, username)
	if err == nil {
		return apperrors.New(apperrors.CodeDuplicateUsername, MsgDuplicateUsername)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeInternal, "lookup username", err)
	}
	return nil
}

func validateRegistration(username, email, password string) []string {
	var fields []string
	switch {
	case username == "":
		fields = append(fields, "username is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		fields = append(fields, "username must be at most 100 characters")
	}
	switch {
	case email == "":
		fields = append(fields, "email is required")
	case len(email) > maxEmailLength:
		fields = append(fields, "email must be at most 255 characters")
	case !validEmail(email):
		fields = append(fields, "email is not a valid address")
	}
	if password == "" {
		fields = append(fields, "password is required")
	}
	return fields
}

// validEmail accepts a bare addr-spec, without display name or angle brackets.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
