// Package bot is the Telegram intake: it receives PDF documents from chat,
// hands them to the invoice pipeline and reports the outcome back to the
// sender. All pipeline failures end up as a chat message, never a crash.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avolkov/tg2sheet/internal/invoice"
)

const (
	greetingText   = "Привет! Пришлите PDF с накладной, и я добавлю позиции в таблицу."
	sendPDFText    = "Пожалуйста, пришлите PDF файл."
	downloadFailed = "Не удалось скачать файл, попробуйте ещё раз."
)

// Processor runs the pipeline for one document. Satisfied by
// *invoice.Service.
type Processor interface {
	ProcessDocument(ctx context.Context, sender, filename string, data []byte) (invoice.Outcome, error)
}

// Handler consumes Telegram updates and feeds PDF documents into the
// pipeline.
type Handler struct {
	api     *tgbotapi.BotAPI
	service Processor
	client  *http.Client
}

// New authenticates against the Telegram Bot API.
func New(token string, service Processor) (*Handler, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", api.Self.UserName)

	return &Handler{
		api:     api,
		service: service,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Run long-polls for updates until ctx is cancelled. Each message is
// handled on its own goroutine so a slow sink round-trip never blocks the
// update loop; two documents sent at once can therefore race on the
// fingerprint snapshot (see invoice.Sink).
func (h *Handler) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := h.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		if msg.Command() == "start" {
			h.reply(msg.Chat.ID, greetingText)
		}
	case msg.Document != nil:
		h.handleDocument(ctx, msg)
	default:
		h.reply(msg.Chat.ID, sendPDFText)
	}
}

func (h *Handler) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	if !isPDF(doc) {
		h.reply(msg.Chat.ID, sendPDFText)
		return
	}

	data, err := h.download(ctx, doc.FileID)
	if err != nil {
		slog.Error("Failed to download document", "file_id", doc.FileID, "error", err)
		h.reply(msg.Chat.ID, downloadFailed)
		return
	}

	report, err := h.service.ProcessDocument(ctx, senderName(msg), doc.FileName, data)
	h.reply(msg.Chat.ID, formatOutcome(report, err))
}

func (h *Handler) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := h.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching file: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func isPDF(doc *tgbotapi.Document) bool {
	return doc.MimeType == "" || doc.MimeType == "application/pdf"
}

func senderName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return msg.From.FirstName
}

// formatOutcome renders the user-facing result message. Partial success is
// always visible: rows appended before a failure stay in the counts.
func formatOutcome(report invoice.Outcome, err error) string {
	if err != nil {
		if report.Added > 0 {
			return fmt.Sprintf("Добавлено строк: %d, пропущено дубликатов: %d. Затем произошла ошибка: %v",
				report.Added, report.Duplicates, err)
		}
		return fmt.Sprintf("Ошибка при обработке PDF: %v", err)
	}
	return fmt.Sprintf("Готово! Добавлено строк: %d, пропущено дубликатов: %d.",
		report.Added, report.Duplicates)
}
