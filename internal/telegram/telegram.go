// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kentavrex/topfit/internal/bot"
	"github.com/kentavrex/topfit/internal/types"
)

// maxFileSize is the Bot API download limit
const maxFileSize = 20 << 20

// Handler processes converted updates
type Handler interface {
	Handle(ctx context.Context, in bot.Incoming) error
}

// Options configure the transport
type Options struct {
	// APIEndpoint and FileEndpoint default to the public Bot API
	APIEndpoint  string
	FileEndpoint string
	HTTPClient   *http.Client
	// Workers bounds how many updates are handled at once
	Workers int
}

// Transport sends messages through the Bot API and feeds updates, received
// by long polling or webhook, to a Handler
type Transport struct {
	api          *tgbotapi.BotAPI
	fileEndpoint string
	client       *http.Client
	workers      int
	webhook      chan tgbotapi.Update
	log          *zap.Logger
}

var _ bot.Messenger = (*Transport)(nil)

// New connects to the Bot API and checks the token
func New(token string, opts Options, log *zap.Logger) (*Transport, error) {
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.FileEndpoint == "" {
		opts.FileEndpoint = tgbotapi.FileEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	if opts.Workers <= 0 {
		opts.Workers = 16
	}

	log = log.Named("telegram")
	if err := tgbotapi.SetLogger(zap.NewStdLog(log.Named("api"))); err != nil {
		return nil, fmt.Errorf("failed to set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, opts.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Info("authorized", zap.String("bot", api.Self.UserName))

	return &Transport{
		api:          api,
		fileEndpoint: opts.FileEndpoint,
		client:       opts.HTTPClient,
		workers:      opts.Workers,
		webhook:      make(chan tgbotapi.Update, 100),
		log:          log,
	}, nil
}

// ToIncoming converts a message update. Updates without a user message are
// skipped.
func ToIncoming(upd tgbotapi.Update) (bot.Incoming, bool) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Incoming{}, false
	}

	in := bot.Incoming{
		User: types.User{
			TelegramID: msg.From.ID,
			FirstName:  msg.From.FirstName,
			LastName:   msg.From.LastName,
			Username:   msg.From.UserName,
		},
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if n := len(msg.Photo); n > 0 {
		// sizes are sorted ascending
		in.PhotoFileID = msg.Photo[n-1].FileID
	}
	if msg.Voice != nil {
		in.VoiceFileID = msg.Voice.FileID
		in.VoiceMime = msg.Voice.MimeType
	}
	return in, true
}

// Run feeds updates to h until ctx is cancelled. With a webhook URL the
// webhook is registered and updates arrive through Enqueue; otherwise the
// webhook is removed and updates are long polled.
func (t *Transport) Run(ctx context.Context, h Handler, webhookURL, secret string) error {
	var updates <-chan tgbotapi.Update
	if webhookURL != "" {
		if err := t.setWebhook(webhookURL, secret); err != nil {
			return err
		}
		t.log.Info("receiving updates by webhook", zap.String("url", webhookURL))
		updates = t.webhook
	} else {
		if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = t.api.GetUpdatesChan(u)
		defer t.api.StopReceivingUpdates()
		t.log.Info("receiving updates by long polling")
	}

	d := newDispatcher(h, t.workers, t.log)
	defer d.wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			in, ok := ToIncoming(upd)
			if !ok {
				continue
			}
			if err := d.dispatch(ctx, in); err != nil {
				return nil
			}
		}
	}
}

// dispatcher keeps one queue per user. A user's messages are handled in
// order by a single worker, so one busy user holds at most one slot.
type dispatcher struct {
	h     Handler
	slots chan struct{}
	g     errgroup.Group
	log   *zap.Logger

	mu      sync.Mutex
	pending map[int64][]bot.Incoming
}

func newDispatcher(h Handler, workers int, log *zap.Logger) *dispatcher {
	return &dispatcher{
		h:       h,
		slots:   make(chan struct{}, workers),
		log:     log,
		pending: make(map[int64][]bot.Incoming),
	}
}

// dispatch queues in and starts a worker for its user if none is running.
// It returns ctx.Err() when cancelled while waiting for a free slot.
func (d *dispatcher) dispatch(ctx context.Context, in bot.Incoming) error {
	userID := in.User.TelegramID

	d.mu.Lock()
	queue, running := d.pending[userID]
	d.pending[userID] = append(queue, in)
	d.mu.Unlock()
	if running {
		return nil
	}

	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.pending, userID)
		d.mu.Unlock()
		return ctx.Err()
	}

	d.g.Go(func() error {
		defer func() { <-d.slots }()
		d.drain(ctx, userID)
		return nil
	})
	return nil
}

func (d *dispatcher) drain(ctx context.Context, userID int64) {
	for {
		d.mu.Lock()
		queue := d.pending[userID]
		if len(queue) == 0 || ctx.Err() != nil {
			delete(d.pending, userID)
			d.mu.Unlock()
			return
		}
		in := queue[0]
		d.pending[userID] = queue[1:]
		d.mu.Unlock()

		if err := d.h.Handle(ctx, in); err != nil && ctx.Err() == nil {
			d.log.Error("failed to handle message", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

func (d *dispatcher) wait() {
	_ = d.g.Wait()
}

func (t *Transport) setWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if _, err := t.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}

// Enqueue hands a webhook update to Run
func (t *Transport) Enqueue(ctx context.Context, upd tgbotapi.Update) error {
	select {
	case t.webhook <- upd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func replyKeyboard(kb bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}

func (t *Transport) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Send(c); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string, kb bot.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = replyKeyboard(kb)
	}
	return t.send(ctx, msg)
}

// SendMarkdown sends a Markdown message and falls back to plain text when
// Telegram cannot parse it
func (t *Transport) SendMarkdown(ctx context.Context, chatID int64, text string, kb bot.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		msg.ReplyMarkup = replyKeyboard(kb)
	}

	err := t.send(ctx, msg)
	if err != nil && strings.Contains(err.Error(), "can't parse entities") {
		t.log.Warn("markdown rejected, sending plain text", zap.Int64("chat_id", chatID))
		msg.ParseMode = ""
		return t.send(ctx, msg)
	}
	return err
}

func (t *Transport) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	return t.send(ctx, doc)
}

func (t *Transport) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file info: %w", err)
	}
	if file.FileSize > maxFileSize {
		return nil, "", fmt.Errorf("file is too large: %d bytes", file.FileSize)
	}

	url := fmt.Sprintf(t.fileEndpoint, t.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, mimeTypeOf(file.FilePath), nil
}

// mimeTypeOf guesses the content type from a Bot API file path
func mimeTypeOf(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	switch ext {
	case ".oga", ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return strings.SplitN(t, ";", 2)[0]
	}
	return "application/octet-stream"
}
