package handlers

import "net/http"

// Routes registers every API route on a new mux. Expense routes require a
// bearer token.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("GET /api/expense", protected(h.ListExpenses))
	mux.Handle("POST /api/expense", protected(h.CreateExpense))
	mux.Handle("GET /api/expense/summary", protected(h.Summary))
	mux.Handle("GET /api/expense/{id}", protected(h.GetExpense))
	mux.Handle("PUT /api/expense/{id}", protected(h.UpdateExpense))
	mux.Handle("DELETE /api/expense/{id}", protected(h.DeleteExpense))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Message: "Resource not found."})
	})

	return mux
}
