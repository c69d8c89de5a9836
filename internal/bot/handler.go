// Package bot is the message-handling boundary: it turns an inbound chat
// message or command into a reply string. Every error stops here; callers
// only ever see user-safe text.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"famledger/internal/auth"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
	"famledger/internal/services"
)

// Commands understood by HandleCommand.
const (
	CmdStart         = "start"
	CmdHelp          = "help"
	CmdRecent        = "recent"
	CmdFamily        = "family"
	CmdSummary       = "summary"
	CmdFamilySummary = "familysummary"
	CmdDelete        = "delete"
)

// Command describes a command for the chat client's menu.
type Command struct {
	Name        string
	Description string
}

// Commands lists the menu entries in display order.
var Commands = []Command{
	{CmdRecent, "Your recent transactions"},
	{CmdFamily, "All family transactions"},
	{CmdSummary, "Your monthly summary"},
	{CmdFamilySummary, "Family monthly summary"},
	{CmdDelete, "Delete your last transaction"},
	{CmdHelp, "Show help message"},
}

// Parser extracts a transaction draft from free text.
type Parser interface {
	Parse(ctx context.Context, text string) (*models.Draft, error)
}

// Config controls listing sizes and reply formatting.
type Config struct {
	CurrencySymbol string
	Location       *time.Location
	RecentLimit    int
	FamilyLimit    int
}

// Handler answers chat messages.
type Handler struct {
	authorizer auth.Authorizer
	parser     Parser
	store      services.TransactionServicer
	audit      services.AuditServicer
	cfg        Config
	now        func() time.Time
	log        *zap.SugaredLogger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the clock used to pick the current month.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a Handler.
func NewHandler(authorizer auth.Authorizer, parser Parser, store services.TransactionServicer, audit services.AuditServicer, cfg Config, opts ...Option) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "£"
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 10
	}
	if cfg.FamilyLimit <= 0 {
		cfg.FamilyLimit = 15
	}
	h := &Handler{
		authorizer: authorizer,
		parser:     parser,
		store:      store,
		audit:      audit,
		cfg:        cfg,
		now:        time.Now,
		log:        logger.Named("bot"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Accept reports whether chatID may send transactions. When it may not, the
// returned reply is the denial to send back.
func (h *Handler) Accept(ctx context.Context, chatID int64) (string, bool) {
	if _, err := h.authorize(ctx, chatID, "message"); err != nil {
		return h.errorReply(chatID, "message", err), false
	}
	return "", true
}

// HandleMessage records the transaction described by text. Callers gate
// the chat with Accept first; the store authorizes the insert again, so a
// chat revoked in between is still refused.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return msgNotUnderstood
	}

	draft, err := h.parser.Parse(ctx, text)
	if err != nil {
		return h.errorReply(chatID, "parse", err)
	}

	tx, err := h.store.Insert(ctx, chatID, draft)
	if err != nil {
		return h.errorReply(chatID, "insert", err)
	}

	h.log.Infow("transaction recorded",
		"chat_id", chatID,
		"transaction_id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.StringFixed(2),
		"category", tx.Category,
	)
	return h.formatRecorded(tx)
}

// HandleCommand answers a slash command. command is given without the
// leading slash.
func (h *Handler) HandleCommand(ctx context.Context, chatID int64, command string) string {
	switch strings.ToLower(command) {
	case CmdStart:
		return formatWelcome(chatID)
	case CmdHelp:
		return helpText
	case CmdRecent:
		return h.recent(ctx, chatID, models.ScopeSelf, h.cfg.RecentLimit)
	case CmdFamily:
		return h.recent(ctx, chatID, models.ScopeFamily, h.cfg.FamilyLimit)
	case CmdSummary:
		return h.summary(ctx, chatID, models.ScopeSelf)
	case CmdFamilySummary:
		return h.summary(ctx, chatID, models.ScopeFamily)
	case CmdDelete:
		return h.deleteLast(ctx, chatID)
	default:
		return msgUnknownCommand
	}
}

func (h *Handler) recent(ctx context.Context, chatID int64, scope models.Scope, limit int) string {
	txs, err := h.store.Recent(ctx, chatID, scope, limit)
	if err != nil {
		return h.errorReply(chatID, "recent", err)
	}
	if len(txs) == 0 {
		if scope == models.ScopeFamily {
			return "No family transactions found."
		}
		return "No transactions found."
	}
	return h.formatRecent(txs, scope)
}

func (h *Handler) summary(ctx context.Context, chatID int64, scope models.Scope) string {
	now := h.now().In(h.cfg.Location)
	s, err := h.store.MonthlySummary(ctx, chatID, scope, now.Year(), now.Month())
	if err != nil {
		return h.errorReply(chatID, "summary", err)
	}
	if s.Empty() {
		if scope == models.ScopeFamily {
			return "No family transactions this month."
		}
		return "No transactions this month."
	}
	return h.formatSummary(s, scope)
}

func (h *Handler) deleteLast(ctx context.Context, chatID int64) string {
	tx, err := h.store.DeleteLast(ctx, chatID, models.ScopeSelf)
	if err != nil {
		return h.errorReply(chatID, "delete", err)
	}
	if tx == nil {
		return "No transactions to delete."
	}
	return h.formatDeleted(tx)
}

// authorize checks chatID and audits a denial.
func (h *Handler) authorize(ctx context.Context, chatID int64, op string) (*models.User, error) {
	user, err := h.authorizer.Authorize(ctx, chatID)
	if err != nil && errors.Is(err, apperrors.ErrUnauthorized) {
		h.audit.Log(ctx, chatID, "", services.AuditActionUnauthorized, "", map[string]interface{}{"operation": op})
	}
	return user, err
}

// errorReply logs err and maps it to a user-safe reply.
func (h *Handler) errorReply(chatID int64, op string, err error) string {
	var appErr *apperrors.AppError
	code, internal := "", ""
	if errors.As(err, &appErr) {
		code = appErr.Code
		if appErr.Internal != nil {
			internal = appErr.Internal.Error()
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		h.log.Infow("unauthorized chat", "chat_id", chatID, "operation", op)
		return msgUnauthorized
	case errors.Is(err, apperrors.ErrParseFailure):
		h.log.Warnw("could not parse message", "chat_id", chatID, "code", code, "internal", internal)
		return msgNotUnderstood
	default:
		h.log.Errorw("request failed",
			"chat_id", chatID,
			"operation", op,
			"code", code,
			"internal", internal,
			"error", err,
		)
		return msgError
	}
}

const (
	msgUnauthorized = "❌ Unauthorized access.\n\n" +
		"This bot is for authorized family members only. " +
		"Please contact the administrator if you should have access."
	msgNotUnderstood  = "❌ Could not understand. Try:\n\"Spent 50 at Tesco\" or \"Salary 2400\""
	msgError          = "❌ Error processing. Please try again."
	msgUnknownCommand = "Unknown command. Send /help to see what I can do."
	// MsgProcessing is shown while a message is being parsed.
	MsgProcessing = "⏳ Processing..."
)

var helpText = func() string {
	var b strings.Builder
	b.WriteString("📖 Family Ledger Help\n\n")
	b.WriteString("💬 Just type naturally! Examples:\n")
	b.WriteString("• \"Spent 50 at Tesco\"\n")
	b.WriteString("• \"Bought coffee 4.50\"\n")
	b.WriteString("• \"Salary 2400\"\n")
	b.WriteString("• \"Saved 200 for emergencies\"\n\n")
	b.WriteString("📱 Commands:\n")
	for _, c := range Commands {
		fmt.Fprintf(&b, "• /%s - %s\n", c.Name, c.Description)
	}
	return b.String()
}()
