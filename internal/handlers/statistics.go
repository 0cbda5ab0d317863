package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// Summary returns the caller's spending for one month grouped by expense
// name. A year or month that is missing, unparsable or out of range falls
// back to the current UTC month.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetIdentity(r)

	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())

	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y >= 1 && y <= 9999 {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	summary, err := h.expenses.Summary(r.Context(), caller.UserID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
