// Package telegram serves the formula pipeline as a Telegram bot. Photos
// go through the recognizer; text messages are treated as LaTeX.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/njchilds90/formsolve/internal/cache"
	"github.com/njchilds90/formsolve/internal/format"
	"github.com/njchilds90/formsolve/internal/pipeline"
	"github.com/njchilds90/formsolve/internal/ratelimit"
	"github.com/njchilds90/formsolve/internal/recognize"
)

const (
	usageText = "Send a photo of a formula, or type it as LaTeX (for example 2x+3=7 or 6 \\mid 12), and I will solve it."
	maxReply  = 3900
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Config struct {
	API        API
	Pipeline   *pipeline.Pipeline
	Recognizer recognize.Recognizer // nil disables photos
	Cache      *cache.Cache
	Limiter    *ratelimit.Limiter
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Bot struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) (*Bot, error) {
	if cfg.API == nil || cfg.Pipeline == nil {
		return nil, errors.New("telegram: API and pipeline are required")
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(0, 1)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Bot{cfg: cfg, logger: cfg.Logger}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	baseDelay := time.Second
	maxDelay := 15 * time.Second
	delay := baseDelay
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("polling stopped")
			return nil
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30
		updates, err := b.cfg.API.GetUpdates(u)
		if err != nil {
			b.logger.Warn("polling error", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, maxDelay)
			continue
		}
		delay = baseDelay

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			b.Handle(ctx, upd)
		}
	}
}

// Handle answers one update.
func (b *Bot) Handle(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID
	log := b.logger.With("request_id", uuid.NewString(), "chat_id", cid)

	if !b.cfg.Limiter.Allow(strconv.FormatInt(cid, 10)) {
		b.send(cid, "Too many requests. Please wait a moment.")
		return
	}

	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start", "help":
			b.send(cid, usageText)
		default:
			b.send(cid, "Unknown command. Send /start for help.")
		}
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, log, cid, msg.Photo[len(msg.Photo)-1])
	case strings.TrimSpace(msg.Text) != "":
		log.Info("solving text message", "latex", msg.Text)
		b.send(cid, Reply(b.solve(msg.Text)))
	default:
		b.send(cid, usageText)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, log *slog.Logger, cid int64, ph tgbotapi.PhotoSize) {
	if b.cfg.Recognizer == nil {
		b.send(cid, "Image recognition is not configured. Send the formula as LaTeX text instead.")
		return
	}
	url, err := b.cfg.API.GetFileDirectURL(ph.FileID)
	if err != nil {
		log.Error("file lookup failed", "error", err)
		b.send(cid, Reply(format.Failure(err)))
		return
	}
	data, err := b.download(ctx, url)
	if err != nil {
		log.Error("photo download failed", "error", err)
		b.send(cid, Reply(format.Failure(err)))
		return
	}
	img, err := recognize.NewImage(data, "")
	if err != nil {
		b.send(cid, Reply(format.Failure(err)))
		return
	}
	latex, res, err := b.cfg.Pipeline.Recognize(ctx, b.cfg.Recognizer, img)
	if err == nil && b.cfg.Cache != nil {
		b.cfg.Cache.Set(latex, res)
	}
	b.send(cid, Reply(res))
}

func (b *Bot) solve(latex string) format.DisplayResult {
	if b.cfg.Cache == nil {
		return b.cfg.Pipeline.Process(latex)
	}
	res, _ := b.cfg.Cache.GetOrCompute(latex, b.cfg.Pipeline.Process)
	return res
}

func (b *Bot) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.cfg.API.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

// Reply renders a display record as a chat message.
func Reply(res format.DisplayResult) string {
	var sb strings.Builder
	sb.WriteString(res.Label)
	if res.Expression != nil && *res.Expression != "" {
		sb.WriteString("\nRecognized: ")
		sb.WriteString(*res.Expression)
	}
	sb.WriteString("\n\n")
	sb.WriteString(res.Answer)
	if res.Note != nil && *res.Note != "" {
		sb.WriteString("\n\nNote: ")
		sb.WriteString(*res.Note)
	}
	text := sb.String()
	if len(text) > maxReply {
		n := maxReply
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n] + "…"
	}
	return text
}
