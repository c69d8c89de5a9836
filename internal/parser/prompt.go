package parser

import (
	"fmt"
	"strings"

	"famledger/internal/categories"
	"famledger/internal/models"
)

// Keyword classes that decide the transaction type. Everything not matched
// by income or savings is an expense.
var (
	incomeKeywords  = []string{"received", "earned", "salary", "refund", "bonus", "freelance", "cashback", "interest", "business"}
	savingsKeywords = []string{"saved", "invested", "transferred to savings"}
	expenseKeywords = []string{"add", "spent", "bought", "paid for", "purchased"}
)

// buildPrompt renders the extraction instruction for message.
func buildPrompt(message string, registry *categories.Registry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a financial transaction parser. Extract the transaction details EXACTLY from the user's message.\n\n")
	fmt.Fprintf(&b, "User message: %q\n\n", message)

	b.WriteString("TRANSACTION TYPE RULES:\n")
	fmt.Fprintf(&b, "- \"income\" if the message is about money coming in (%s)\n", strings.Join(incomeKeywords, ", "))
	fmt.Fprintf(&b, "- \"savings\" if the money is put aside (%s)\n", strings.Join(savingsKeywords, ", "))
	fmt.Fprintf(&b, "- \"expense\" for everything else (%s, ...)\n\n", strings.Join(expenseKeywords, ", "))

	b.WriteString("CRITICAL RULES FOR AMOUNT:\n")
	b.WriteString("- Keep ALL decimal places EXACTLY as written (4.50 stays 4.50, not 4.5 or 5)\n")
	b.WriteString("- Always use exactly 2 decimal places; if no decimals are written, add .00\n")
	b.WriteString("- Do NOT round numbers and do NOT include currency symbols\n\n")

	b.WriteString("CATEGORY - pick ONE from the list for the chosen type:\n")
	for _, t := range models.TransactionTypes {
		fmt.Fprintf(&b, "- %s: %s\n", t, strings.Join(registry.Categories(t), ", "))
	}
	b.WriteString("\nDESCRIPTION - the shop, merchant, payer or item, in a few words.\n\n")

	b.WriteString("EXAMPLES:\n")
	b.WriteString(`"Spent 4.50 on coffee" -> {"transaction_type": "expense", "amount": 4.50, "category": "Food", "description": "Coffee"}` + "\n")
	b.WriteString(`"Add 50 to Tesco" -> {"transaction_type": "expense", "amount": 50.00, "category": "Grocery", "description": "Tesco"}` + "\n")
	b.WriteString(`"Salary 2400" -> {"transaction_type": "income", "amount": 2400.00, "category": "Salary", "description": "Monthly salary"}` + "\n")
	b.WriteString(`"Saved 200 for emergencies" -> {"transaction_type": "savings", "amount": 200.00, "category": "Emergency Fund", "description": "Emergency savings"}` + "\n\n")

	b.WriteString("Respond with ONLY one JSON object with exactly these fields:\n")
	b.WriteString(`{"transaction_type": "expense|income|savings", "amount": 0.00, "category": "...", "description": "..."}`)
	b.WriteString("\n")

	return b.String()
}
