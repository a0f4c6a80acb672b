package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/session"
)

// transactionJSON is the wire form of one record.
type transactionJSON struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       tx.ID,
		Date:     tx.Date.String(),
		Category: tx.Category,
		Amount:   tx.Amount.Decimal(),
		Kind:     string(tx.Kind),
	}
}

// handleHome renders the welcome payload of the Home view.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, sess sessionState) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.setView(sess, session.ViewHome)
	respondJSON(w, http.StatusOK, map[string]any{
		"view":    session.ViewHome,
		"message": "Welcome to Personal Finance Tracker",
		"features": []string{
			"Add and delete transactions",
			"Visualize spending categories",
			"Export data as CSV or PDF",
		},
	})
}

// handleTransactions dispatches the AddTransaction and ViewTransactions
// views on one route.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, sess sessionState) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddTransaction(w, r, sess)
	case http.MethodGet:
		s.handleListTransactions(w, r, sess)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request, sess sessionState) {
	s.setView(sess, session.ViewAddTransaction)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	kind, err := core.ParseKind(p.Get("kind"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	tx := core.Transaction{
		Owner:    sess.owner,
		Date:     date,
		Category: p.Get("category"),
		Amount:   core.Money{Cents: cents},
		Kind:     kind,
	}
	if err := tx.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}

	id, err := s.store.Add(r.Context(), tx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	tx.ID = id

	// Command then refresh: the next summary read must recompute.
	s.invalidateSummary(sess.owner)

	slog.InfoContext(r.Context(), "Transaction added",
		"id", id, "owner", sess.owner, "category", tx.Category, "kind", tx.Kind)
	respondJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess sessionState) {
	s.setView(sess, session.ViewViewTransactions)

	snapshot, err := s.store.List(r.Context(), sess.owner)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(snapshot))
	for _, tx := range snapshot {
		out = append(out, toTransactionJSON(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"view":         session.ViewViewTransactions,
		"transactions": out,
	})
}

// handleDeleteTransaction serves DELETE /api/transactions/{id}.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess sessionState) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}
	s.setView(sess, session.ViewViewTransactions)

	raw := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.store.Delete(r.Context(), sess.owner, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateSummary(sess.owner)

	slog.InfoContext(r.Context(), "Transaction deleted", "id", id, "owner", sess.owner)
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
