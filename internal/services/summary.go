package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"famledger/internal/models"
)

// MonthlySummary holds per-category totals for one calendar month.
type MonthlySummary struct {
	Year  int
	Month time.Month
	// Totals maps category to the sum of its amounts.
	Totals map[string]decimal.Decimal
	// Order lists categories in the order they were first retrieved.
	Order []string
}

// CategoryTotal is one line of a sorted summary.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// newMonthlySummary sums rows in retrieval order.
func newMonthlySummary(year int, month time.Month, rows []models.Transaction) *MonthlySummary {
	s := &MonthlySummary{
		Year:   year,
		Month:  month,
		Totals: make(map[string]decimal.Decimal),
	}
	for _, r := range rows {
		prev, seen := s.Totals[r.Category]
		if !seen {
			s.Order = append(s.Order, r.Category)
		}
		s.Totals[r.Category] = prev.Add(r.Amount)
	}
	return s
}

// Empty reports whether the month had no transactions.
func (s *MonthlySummary) Empty() bool {
	return len(s.Totals) == 0
}

// Sorted returns the totals by amount descending, ties broken by name.
func (s *MonthlySummary) Sorted() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.Order))
	for _, c := range s.Order {
		out = append(out, CategoryTotal{Category: c, Amount: s.Totals[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Total returns the sum across all categories.
func (s *MonthlySummary) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range s.Order {
		total = total.Add(s.Totals[c])
	}
	return total
}

// TypeTotals sums a listing by transaction type.
type TypeTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Savings decimal.Decimal
}

// SumByType totals txs per type.
func SumByType(txs []models.Transaction) TypeTotals {
	var t TypeTotals
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionTypeIncome:
			t.Income = t.Income.Add(tx.Amount)
		case models.TransactionTypeSavings:
			t.Savings = t.Savings.Add(tx.Amount)
		default:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}

// Net is income minus expenses and savings.
func (t TypeTotals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense).Sub(t.Savings)
}
