// Package telegram connects the bot handler to the Telegram Bot API using
// long polling.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"famledger/internal/bot"
	"famledger/internal/logger"
)

const (
	pollTimeoutSeconds = 60
	shardBuffer        = 16
)

// Sender is the subset of *tgbotapi.BotAPI used to reply.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler produces replies for inbound messages.
type MessageHandler interface {
	Accept(ctx context.Context, chatID int64) (string, bool)
	HandleMessage(ctx context.Context, chatID int64, text string) string
	HandleCommand(ctx context.Context, chatID int64, command string) string
}

// Gateway routes Telegram updates to a MessageHandler. Updates for one chat
// are always handled by the same worker, in arrival order.
type Gateway struct {
	sender  Sender
	handler MessageHandler
	workers int
	log     *zap.SugaredLogger
}

// NewGateway creates a Gateway that replies through sender.
func NewGateway(sender Sender, handler MessageHandler, workers int) *Gateway {
	if workers < 1 {
		workers = 1
	}
	return &Gateway{
		sender:  sender,
		handler: handler,
		workers: workers,
		log:     logger.Named("telegram"),
	}
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (g *Gateway) RegisterCommands() error {
	cmds := make([]tgbotapi.BotCommand, 0, len(bot.Commands))
	for _, c := range bot.Commands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := g.sender.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("registering bot commands: %w", err)
	}
	return nil
}

// Poll long-polls api for updates until ctx is cancelled.
func (g *Gateway) Poll(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds

	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	g.log.Infow("polling for updates", "bot", api.Self.UserName, "workers", g.workers)
	g.Dispatch(ctx, updates)
	return ctx.Err()
}

// Dispatch fans updates out to the worker shards and returns once updates
// is closed or ctx is done and every in-flight update has been handled.
func (g *Gateway) Dispatch(ctx context.Context, updates <-chan tgbotapi.Update) {
	shards := make([]chan tgbotapi.Update, g.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, shardBuffer)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for upd := range in {
				g.handleUpdate(ctx, upd)
			}
		}(shards[i])
	}

	defer func() {
		for _, s := range shards {
			close(s)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if upd.Message == nil || upd.Message.Chat == nil {
				continue
			}
			select {
			case shards[shardFor(upd.Message.Chat.ID, g.workers)] <- upd:
			case <-ctx.Done():
				return
			}
		}
	}
}

func shardFor(chatID int64, n int) int {
	return int(uint64(chatID) % uint64(n))
}

// handleUpdate answers a single message update.
func (g *Gateway) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Errorw("panic while handling update", "update_id", upd.UpdateID, "panic", r)
		}
	}()

	msg := upd.Message
	if msg == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		g.reply(chatID, g.handler.HandleCommand(ctx, chatID, msg.Command()))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if denial, ok := g.handler.Accept(ctx, chatID); !ok {
		g.reply(chatID, denial)
		return
	}

	processing, err := g.sender.Send(tgbotapi.NewMessage(chatID, bot.MsgProcessing))
	reply := g.handler.HandleMessage(ctx, chatID, text)
	if err != nil {
		g.log.Warnw("failed to send processing message", "chat_id", chatID, "error", err)
		g.reply(chatID, reply)
		return
	}

	if _, err := g.sender.Send(tgbotapi.NewEditMessageText(chatID, processing.MessageID, reply)); err != nil {
		g.log.Warnw("failed to edit processing message, sending instead", "chat_id", chatID, "error", err)
		g.reply(chatID, reply)
	}
}

func (g *Gateway) reply(chatID int64, text string) {
	if text == "" {
		return
	}
	if _, err := g.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		g.log.Errorw("failed to send reply", "chat_id", chatID, "error", err)
	}
}
