package http

import (
	"net/http"

	"fintrack/internal/session"
)

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type summaryJSON struct {
	View         session.View   `json:"view"`
	TotalIncome  string         `json:"total_income"`
	TotalExpense string         `json:"total_expense"`
	Net          string         `json:"net"`
	ByCategory   []categoryJSON `json:"by_category"`
}

// handleSummary renders the Analytics view: totals, net savings and the
// per-category expense breakdown. The summary comes from the per-owner
// cache when a write has not invalidated it.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, sess sessionState) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.setView(sess, session.ViewAnalytics)

	sum, err := s.ownerSummary(r.Context(), sess.owner)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := summaryJSON{
		View:         session.ViewAnalytics,
		TotalIncome:  sum.TotalIncome.Decimal(),
		TotalExpense: sum.TotalExpense.Decimal(),
		Net:          sum.Net.Decimal(),
		ByCategory:   make([]categoryJSON, 0, len(sum.ByCategory)),
	}
	for _, c := range sum.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryJSON{
			Category: c.Name,
			Amount:   c.Amount.Decimal(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}
