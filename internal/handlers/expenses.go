package handlers

import (
	"net/http"
	"strconv"

	"budgetwise/internal/apperrors"
	"budgetwise/internal/expenses"
	"budgetwise/internal/log"
)

// parseID reads the {id} path value. Zero, negative and non-numeric IDs are
// rejected with message.
func parseID(r *http.Request, message string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, message)
	}
	return id, nil
}

// ListExpenses returns the caller's expenses.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	id, _ := GetIdentity(r)

	items, err := h.expenses.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

// GetExpense returns one of the caller's expenses.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetIdentity(r)
	id, err := parseID(r, expenses.MsgInvalidExpenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.expenses.Get(r.Context(), caller.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

// CreateExpense stores a new expense owned by the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetIdentity(r)

	var in expenses.Input
	if err := decodeJSON(w, r, &in, expenses.MsgInvalidExpenseData); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.expenses.Create(r.Context(), caller.UserID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, e.ID,
	)
	w.Header().Set("Location", "/api/expense/"+strconv.FormatInt(e.ID, 10))
	writeJSON(w, r, http.StatusCreated, e)
}

// UpdateExpense replaces one of the caller's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetIdentity(r)
	id, err := parseID(r, expenses.MsgInvalidExpenseData)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in expenses.Input
	if err := decodeJSON(w, r, &in, expenses.MsgInvalidExpenseData); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.expenses.Update(r.Context(), caller.UserID, id, in); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, id,
	)
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: expenses.MsgExpenseUpdated})
}

// DeleteExpense removes one of the caller's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetIdentity(r)
	id, err := parseID(r, expenses.MsgInvalidExpenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.expenses.Delete(r.Context(), caller.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id,
	)
	w.WriteHeader(http.StatusNoContent)
}
