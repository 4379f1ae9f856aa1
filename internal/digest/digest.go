// Package digest formats business ideas into Telegram messages and logs
// every delivery attempt.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ideaspark/internal/model"
	"ideaspark/internal/storage"
)

// sendTimeout bounds each call to the messaging API.
const sendTimeout = 5 * time.Second

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetMe() (tgbotapi.User, error)
}

// Sender posts idea digests to a Telegram chat.
type Sender struct {
	api    telegramAPI
	store  storage.Storage
	chatID int64
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Sender with the given Telegram token and target chat.
func New(token string, chatID int64, store storage.Storage, log *slog.Logger) (*Sender, error) {
	client := &http.Client{Timeout: sendTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Sender{
		api:    api,
		store:  store,
		chatID: chatID,
		log:    log,
		now:    time.Now,
	}, nil
}

// SendDigest renders and sends a digest of the given ideas, returning
// whether delivery succeeded. The attempt is logged to storage regardless
// of outcome.
func (s *Sender) SendDigest(ctx context.Context, ideas []model.BusinessIdea) bool {
	text := FormatDigest(ideas)

	ideaIDs := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		ideaIDs = append(ideaIDs, idea.ID)
	}

	return s.deliver(ctx, model.MessageDailyDigest, ideaIDs, text)
}

// SendIdea sends a single idea as its own message.
func (s *Sender) SendIdea(ctx context.Context, idea model.BusinessIdea) bool {
	return s.deliver(ctx, model.MessageIdea, []string{idea.ID}, FormatIdea(idea))
}

// SendTestMessage sends a fixed string used by operational health checks.
func (s *Sender) SendTestMessage(ctx context.Context) bool {
	return s.deliver(ctx, model.MessageTest, nil, "IdeaSpark test message. The bot is configured correctly.")
}

// TestConnection performs a lightweight identity check against the
// messaging API without sending anything to the chat.
func (s *Sender) TestConnection() error {
	if _, err := s.api.GetMe(); err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	return nil
}

func (s *Sender) deliver(ctx context.Context, msgType model.MessageType, ideaIDs []string, text string) bool {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	entry := model.TelegramLog{
		ChatID:  s.chatID,
		Type:    msgType,
		IdeaIDs: ideaIDs,
		Content: text,
		Success: true,
		SentAt:  s.now().UTC(),
	}

	if _, err := s.api.Send(msg); err != nil {
		s.log.Error("telegram send failed", "type", msgType, "error", err)
		entry.Success = false
		entry.ErrorText = err.Error()
	}

	if err := s.store.LogTelegramMessage(ctx, &entry); err != nil {
		s.log.Error("log telegram message", "type", msgType, "error", err)
	}
	return entry.Success
}

// FormatDigest renders the daily digest message. An empty idea list
// produces a fixed notice instead of an empty digest.
func FormatDigest(ideas []model.BusinessIdea) string {
	if len(ideas) == 0 {
		return "💡 <b>IdeaSpark Daily Digest</b>\n\nNo new ideas today. Check back tomorrow!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💡 <b>IdeaSpark Daily Digest</b>\n%d idea(s) worth a look today.\n", len(ideas))
	for i, idea := range ideas {
		fmt.Fprintf(&b, "\n%d. <b>%s</b>\n", i+1, idea.Title)
		fmt.Fprintf(&b, "%s\n", idea.Description)
		fmt.Fprintf(&b, "Confidence: %d%% | Cost: %s | Time to market: %s\n",
			idea.ConfidenceScore, idea.EstimatedCost, idea.TimeToMarket)
	}
	b.WriteString("\nReply /ideas for details.")
	return b.String()
}

// FormatIdea renders one idea as a standalone message.
func FormatIdea(idea model.BusinessIdea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💡 <b>%s</b>\n\n%s\n\n", idea.Title, idea.Description)
	fmt.Fprintf(&b, "Target market: %s\n", idea.TargetMarket)
	fmt.Fprintf(&b, "Business model: %s\n", idea.BusinessModel)
	fmt.Fprintf(&b, "Confidence: %d%% | Cost: %s | Time to market: %s",
		idea.ConfidenceScore, idea.EstimatedCost, idea.TimeToMarket)
	return b.String()
}
