package handlers

import (
	"context"
	"net/http"
	"time"

	"budgetwise/internal/auth"
	"budgetwise/internal/expenses"
	"budgetwise/internal/log"
)

// Context key type to avoid collisions.
type contextKey string

// IdentityContextKey is the context key for the authenticated caller.
const IdentityContextKey contextKey = "identity"

const healthTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	gate     *auth.Gate
	guard    *auth.Guard
	expenses *expenses.Service
	db       Pinger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(gate *auth.Gate, guard *auth.Guard, svc *expenses.Service, db Pinger) *Handlers {
	return &Handlers{gate: gate, guard: guard, expenses: svc, db: db}
}

// GetIdentity retrieves the authenticated caller from request context.
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	id, ok := r.Context().Value(IdentityContextKey).(auth.Identity)
	return id, ok
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.guard.Authorize(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, id.UserID)
		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		ctx = log.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in, auth.MsgInvalidRequest); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.gate.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "user registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, user.ID,
	)
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: auth.MsgRegistered})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in, auth.MsgInvalidRequest); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.gate.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, TokenResponse{Token: token})
}

// Health reports whether the database is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "health check failed", log.FieldError, err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
