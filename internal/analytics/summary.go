// Package analytics computes aggregate figures over a transaction
// snapshot. Everything here is a pure function: callers take a snapshot
// from a store and pass it in, there is no I/O.
package analytics

import "fintrack/internal/core"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// Summary holds the aggregate figures for one owner's snapshot.
type Summary struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	Net          core.Money
	// ByCategory lists per-category expense totals, ordered by first
	// occurrence in the snapshot.
	ByCategory []CategoryAmount
}

// Summarize computes income/expense totals, the net balance, and the
// per-category expense breakdown. An empty snapshot yields zero totals
// and an empty breakdown.
func Summarize(snapshot []core.Transaction) Summary {
	var s Summary
	byCategory := make(map[string]int)
	for _, tx := range snapshot {
		switch tx.Kind {
		case core.Income:
			s.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			s.TotalExpense.Cents += tx.Amount.Cents
			if i, seen := byCategory[tx.Category]; seen {
				s.ByCategory[i].Amount.Cents += tx.Amount.Cents
			} else {
				byCategory[tx.Category] = len(s.ByCategory)
				s.ByCategory = append(s.ByCategory, CategoryAmount{
					Name:   tx.Category,
					Amount: tx.Amount,
				})
			}
		}
	}
	s.Net = core.Money{Cents: s.TotalIncome.Cents - s.TotalExpense.Cents}
	return s
}
