package expenses

import (
	"context"
	"time"

	"budgetwise/internal/apperrors"
)

// SummaryItem is the share of a month's spending under one expense name.
type SummaryItem struct {
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Period identifies a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Summary is a month of a user's spending grouped by expense name.
type Summary struct {
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	MonthName      string        `json:"monthName"`
	Total          float64       `json:"total"`
	Items          []SummaryItem `json:"items"`
	Previous       Period        `json:"previous"`
	Next           Period        `json:"next"`
	IsCurrentMonth bool          `json:"isCurrentMonth"`
}

// Summary totals the user's expenses for the given month by name, largest
// first, with each name's percentage of the month total.
func (s *Service) Summary(ctx context.Context, userID int64, year, month int) (*Summary, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return nil, apperrors.New(apperrors.CodeValidation, MsgInvalidPeriod)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	totals, err := s.store.NameTotalsBetween(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "name totals", err)
	}

	var total float64
	for _, nt := range totals {
		total += nt.Total
	}

	items := make([]SummaryItem, 0, len(totals))
	for _, nt := range totals {
		percentage := 0.0
		if total > 0 {
			percentage = (nt.Total / total) * 100
		}
		items = append(items, SummaryItem{
			Name:       nt.Name,
			Total:      nt.Total,
			Count:      nt.Count,
			Percentage: percentage,
		})
	}

	prev := start.AddDate(0, -1, 0)
	now := time.Now().UTC()

	return &Summary{
		Year:           year,
		Month:          month,
		MonthName:      start.Month().String(),
		Total:          total,
		Items:          items,
		Previous:       Period{Year: prev.Year(), Month: int(prev.Month())},
		Next:           Period{Year: end.Year(), Month: int(end.Month())},
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	}, nil
}
