package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"famledger/internal/models"
	"famledger/internal/services"
)

const divider = "━━━━━━━━━━━━━━━━"

func typeEmoji(t models.TransactionType) string {
	switch t {
	case models.TransactionTypeIncome:
		return "💰"
	case models.TransactionTypeSavings:
		return "🏦"
	default:
		return "💸"
	}
}

func typeLabel(t models.TransactionType) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *Handler) money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + h.cfg.CurrencySymbol + d.Neg().StringFixed(2)
	}
	return h.cfg.CurrencySymbol + d.StringFixed(2)
}

func authorName(tx models.Transaction) string {
	if tx.User == nil || tx.User.Name == "" {
		return "Unknown"
	}
	return tx.User.Name
}

func formatWelcome(chatID int64) string {
	return "Welcome to Family Ledger! 💰👨‍👩‍👧‍👦\n\n" +
		"💬 Just tell me your transactions naturally:\n" +
		"• \"Spent 50 at Tesco\"\n" +
		"• \"Add 25 for coffee\"\n" +
		"• \"Paid 100 for electricity\"\n" +
		"• \"Bought lunch for 12.50\"\n\n" +
		"📱 Or use the menu button to see all commands!\n\n" +
		fmt.Sprintf("Your Chat ID: %d", chatID)
}

func (h *Handler) formatRecorded(tx *models.Transaction) string {
	return fmt.Sprintf("✅ %s recorded!\n\n%s Amount: %s\n📁 Category: %s\n📝 Description: %s",
		typeLabel(tx.Type),
		typeEmoji(tx.Type), h.money(tx.Amount),
		tx.Category,
		tx.Description,
	)
}

func (h *Handler) formatDeleted(tx *models.Transaction) string {
	return fmt.Sprintf("✅ Deleted:\n\n%s %s\n📁 %s\n📝 %s",
		typeEmoji(tx.Type), h.money(tx.Amount),
		tx.Category,
		tx.Description,
	)
}

func (h *Handler) formatRecent(txs []models.Transaction, scope models.Scope) string {
	var b strings.Builder
	if scope == models.ScopeFamily {
		b.WriteString("👨‍👩‍👧‍👦 Recent Family Transactions:\n\n")
	} else {
		b.WriteString("📊 Recent Transactions:\n\n")
	}

	for i, tx := range txs {
		date := tx.CreatedAt.In(h.cfg.Location).Format("02 Jan 2006")
		fmt.Fprintf(&b, "%d. %s %s - %s\n", i+1, typeEmoji(tx.Type), h.money(tx.Amount), tx.Category)
		fmt.Fprintf(&b, "   %s • by %s\n", tx.Description, authorName(tx))
		fmt.Fprintf(&b, "   %s\n\n", date)
	}

	totals := services.SumByType(txs)
	b.WriteString(divider + "\n")
	if totals.Income.IsPositive() {
		fmt.Fprintf(&b, "💰 Income: %s\n", h.money(totals.Income))
	}
	if totals.Expense.IsPositive() {
		fmt.Fprintf(&b, "💸 Expenses: %s\n", h.money(totals.Expense))
	}
	if totals.Savings.IsPositive() {
		fmt.Fprintf(&b, "🏦 Savings: %s\n", h.money(totals.Savings))
	}
	fmt.Fprintf(&b, "📈 Net: %s", h.money(totals.Net()))
	return b.String()
}

func (h *Handler) formatSummary(s *services.MonthlySummary, scope models.Scope) string {
	var b strings.Builder
	title := "📊 Monthly Summary"
	if scope == models.ScopeFamily {
		title = "👨‍👩‍👧‍👦 Family Monthly Summary"
	}
	fmt.Fprintf(&b, "%s (%s %d):\n\n", title, s.Month, s.Year)

	for _, line := range s.Sorted() {
		fmt.Fprintf(&b, "%s: %s\n", line.Category, h.money(line.Amount))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s", h.money(s.Total()))
	return b.String()
}
