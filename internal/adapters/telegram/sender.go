package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/metrics"
)

// Sender отправляет сообщения и фото в канал через Bot API.
type Sender struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

var _ domain.ChatSender = (*Sender)(nil)

// NewSender создаёт отправителя.
func NewSender(bot *tgbotapi.BotAPI, logger zerolog.Logger) *Sender {
	return &Sender{bot: bot, log: logger}
}

// SendMessage отправляет HTML-текст. Длинный текст режется на части,
// кнопка со ссылкой на статью вешается только на последнюю.
func (s *Sender) SendMessage(_ context.Context, chatID, text, articleURL string) error {
	parts := SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessageToChannel("", part)
		applyChatID(&msg.BaseChat, chatID)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if articleURL != "" && i == len(parts)-1 {
			msg.ReplyMarkup = articleKeyboard(articleURL)
		}
		start := time.Now()
		_, err := s.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram", "send_message", "channel", start, err)
		if err != nil {
			metrics.SendErrors.Inc()
			return err
		}
	}
	return nil
}

// SendPhoto отправляет фото по URL с HTML-подписью.
func (s *Sender) SendPhoto(_ context.Context, chatID, photoURL, caption, articleURL string) error {
	photo := tgbotapi.NewPhotoToChannel("", tgbotapi.FileURL(photoURL))
	applyChatID(&photo.BaseChat, chatID)
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if articleURL != "" {
		photo.ReplyMarkup = articleKeyboard(articleURL)
	}
	start := time.Now()
	_, err := s.bot.Send(photo)
	metrics.ObserveNetworkRequest("telegram", "send_photo", "channel", start, err)
	if err != nil {
		metrics.SendErrors.Inc()
	}
	return err
}

func articleKeyboard(articleURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Оригинал статьи", articleURL),
		),
	)
}

// applyChatID различает @username канала и числовой chat id.
func applyChatID(base *tgbotapi.BaseChat, chatID string) {
	base.ChannelUsername, base.ChatID = resolveChatID(chatID)
}

func resolveChatID(chatID string) (username string, id int64) {
	if strings.HasPrefix(chatID, "@") {
		return chatID, 0
	}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return "", id
	}
	return "@" + chatID, 0
}
