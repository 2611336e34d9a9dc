package notify

import (
	"context"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hardng/arca/internal/config"
)

// Telegram bots reject documents above 50 MB.
const maxDocumentMB = 50

// Telegram reports run outcomes to a chat. Failures here never affect
// the run result.
type Telegram struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	sendFile bool
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{
		bot:      bot,
		chatID:   cfg.ChatID,
		sendFile: cfg.SendFile,
	}, nil
}

func (t *Telegram) Notify(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

// NotifyFile delivers the artifact itself when file delivery is enabled
// and the file is small enough; otherwise it degrades to a message.
func (t *Telegram) NotifyFile(ctx context.Context, localPath, caption string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	if !t.sendFile || sizeMB > maxDocumentMB {
		return t.Notify(ctx, caption)
	}

	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(localPath))
	doc.Caption = caption
	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send telegram file: %w", err)
	}
	return nil
}
