package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"famledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an authorized user in the given family with a
// unique chat ID.
func CreateTestUser(t *testing.T, db *gorm.DB, familyID string) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithChatID(t, db, 100000+n, fmt.Sprintf("User %d", n), familyID)
}

// CreateTestUserWithChatID creates an authorized user with explicit fields.
func CreateTestUserWithChatID(t *testing.T, db *gorm.DB, chatID int64, name, familyID string) *models.User {
	t.Helper()

	user := &models.User{
		ChatID:   chatID,
		Name:     name,
		FamilyID: familyID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction stores a transaction for user directly, bypassing
// authorization. amount is a decimal string such as "4.50".
func CreateTestTransaction(t *testing.T, db *gorm.DB, user *models.User, txType models.TransactionType, category, amount string, createdAt time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: fmt.Sprintf("Test %s %d", category, nextID()),
		CreatedAt:   createdAt,
		UserID:      user.ID,
		FamilyID:    user.FamilyID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CountTransactions returns the number of stored transaction rows.
func CountTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.Transaction{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	return n
}
