package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/bot"
	"github.com/kentavrex/topfit/internal/types"
)

const testToken = "123:abc"

// fakeBotAPI answers the Bot API methods the transport uses
type fakeBotAPI struct {
	t *testing.T

	mu       sync.Mutex
	requests map[string][]map[string]string
	badParse bool
}

func (f *fakeBotAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/", func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			require.NoError(f.t, r.ParseMultipartForm(1<<20))
		} else {
			require.NoError(f.t, r.ParseForm())
		}
		params := map[string]string{}
		for k := range r.Form {
			params[k] = r.Form.Get(k)
		}

		f.mu.Lock()
		f.requests[method] = append(f.requests[method], params)
		badParse := f.badParse && method == "sendMessage" && params["parse_mode"] != ""
		f.mu.Unlock()

		var result interface{}
		switch method {
		case "getMe":
			result = map[string]interface{}{"id": 1, "is_bot": true, "first_name": "TopFit", "username": "topfit_bot"}
		case "sendMessage", "sendDocument":
			if badParse {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"ok": false, "error_code": 400, "description": "Bad Request: can't parse entities",
				})
				return
			}
			result = map[string]interface{}{"message_id": 1, "date": 0, "chat": map[string]interface{}{"id": 100, "type": "private"}}
		case "getFile":
			result = map[string]interface{}{"file_id": params["file_id"], "file_unique_id": "u", "file_size": 3, "file_path": "voice/file_1.oga"}
		default:
			result = true
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
	})
	mux.HandleFunc("/file/bot"+testToken+"/voice/file_1.oga", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ogg"))
	})
	return mux
}

func (f *fakeBotAPI) calls(method string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

func newTestTransport(t *testing.T) (*Transport, *fakeBotAPI) {
	fake := &fakeBotAPI{t: t, requests: map[string][]map[string]string{}}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	tr, err := New(testToken, Options{
		APIEndpoint:  srv.URL + "/bot%s/%s",
		FileEndpoint: srv.URL + "/file/bot%s/%s",
		HTTPClient:   srv.Client(),
	}, zap.NewNop())
	require.NoError(t, err)
	return tr, fake
}

func TestToIncoming(t *testing.T) {
	upd := tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 100, FirstName: "Иван", LastName: "Петров", UserName: "ivan"},
			Chat: &tgbotapi.Chat{ID: 100},
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 1280},
			},
			Voice: &tgbotapi.Voice{FileID: "voice", MimeType: "audio/ogg"},
		},
	}

	in, ok := ToIncoming(upd)
	require.True(t, ok)
	assert.Equal(t, int64(100), in.User.TelegramID)
	assert.Equal(t, "Петров", in.User.LastName)
	assert.Equal(t, "ivan", in.User.Username)
	assert.Equal(t, int64(100), in.ChatID)
	assert.Equal(t, "large", in.PhotoFileID)
	assert.Equal(t, "voice", in.VoiceFileID)
	assert.Equal(t, "audio/ogg", in.VoiceMime)

	_, ok = ToIncoming(tgbotapi.Update{UpdateID: 2})
	assert.False(t, ok)
}

func TestTransport_SendText(t *testing.T) {
	tr, fake := newTestTransport(t)

	require.NoError(t, tr.SendText(context.Background(), 100, "К главному меню", bot.Keyboard{{"Статистика"}}))

	calls := fake.calls("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "100", calls[0]["chat_id"])
	assert.Equal(t, "К главному меню", calls[0]["text"])

	var markup tgbotapi.ReplyKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(calls[0]["reply_markup"]), &markup))
	assert.True(t, markup.ResizeKeyboard)
	assert.Equal(t, "Статистика", markup.Keyboard[0][0].Text)
}

func TestTransport_SendMarkdownFallback(t *testing.T) {
	tr, fake := newTestTransport(t)
	fake.badParse = true

	require.NoError(t, tr.SendMarkdown(context.Background(), 100, "*broken", nil))

	calls := fake.calls("sendMessage")
	require.Len(t, calls, 2)
	assert.Equal(t, "Markdown", calls[0]["parse_mode"])
	assert.Empty(t, calls[1]["parse_mode"])
}

func TestTransport_SendDocument(t *testing.T) {
	tr, fake := newTestTransport(t)

	require.NoError(t, tr.SendDocument(context.Background(), 100, "report.xlsx", []byte("xlsx"), "Статистика"))

	calls := fake.calls("sendDocument")
	require.Len(t, calls, 1)
	assert.Equal(t, "Статистика", calls[0]["caption"])
}

func TestTransport_DownloadFile(t *testing.T) {
	tr, _ := newTestTransport(t)

	data, mimeType, err := tr.DownloadFile(context.Background(), "voice-1")
	require.NoError(t, err)
	assert.Equal(t, "ogg", string(data))
	assert.Equal(t, "audio/ogg", mimeType)
}

type recordingHandler struct {
	got chan bot.Incoming
}

func (h recordingHandler) Handle(_ context.Context, in bot.Incoming) error {
	h.got <- in
	return nil
}

func TestTransport_RunWebhook(t *testing.T) {
	tr, fake := newTestTransport(t)
	h := recordingHandler{got: make(chan bot.Incoming, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, h, "https://topfit.example.com/telegram/webhook", "s3cret") }()

	require.NoError(t, tr.Enqueue(ctx, tgbotapi.Update{
		UpdateID: 7,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 100},
			Chat: &tgbotapi.Chat{ID: 100},
			Text: "статистика",
		},
	}))

	select {
	case in := <-h.got:
		assert.Equal(t, "статистика", in.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("update was not handled")
	}

	cancel()
	require.NoError(t, <-done)

	calls := fake.calls("setWebhook")
	require.Len(t, calls, 1)
	assert.Equal(t, "https://topfit.example.com/telegram/webhook", calls[0]["url"])
	assert.Equal(t, "s3cret", calls[0]["secret_token"])
}

func TestMimeTypeOf(t *testing.T) {
	assert.Equal(t, "audio/ogg", mimeTypeOf("voice/file_1.oga"))
	assert.Equal(t, "image/jpeg", mimeTypeOf("photos/file_2.JPG"))
	assert.Equal(t, "image/png", mimeTypeOf("photos/file_3.png"))
	assert.Equal(t, "application/octet-stream", mimeTypeOf("documents/file"))
}

// gatedHandler blocks messages of one user until release is closed
type gatedHandler struct {
	blocked int64
	release chan struct{}

	mu  sync.Mutex
	got []string
	ch  chan string
}

func (h *gatedHandler) Handle(_ context.Context, in bot.Incoming) error {
	if in.User.TelegramID == h.blocked {
		<-h.release
	}
	h.mu.Lock()
	h.got = append(h.got, in.Text)
	h.mu.Unlock()
	h.ch <- in.Text
	return nil
}

func incoming(userID int64, text string) bot.Incoming {
	return bot.Incoming{User: types.User{TelegramID: userID}, ChatID: userID, Text: text}
}

func TestDispatcher_BusyUserKeepsOneSlot(t *testing.T) {
	h := &gatedHandler{blocked: 1, release: make(chan struct{}), ch: make(chan string, 16)}
	d := newDispatcher(h, 2, zap.NewNop())
	ctx := context.Background()

	for _, text := range []string{"a1", "a2", "a3", "a4", "a5"} {
		require.NoError(t, d.dispatch(ctx, incoming(1, text)))
	}
	require.NoError(t, d.dispatch(ctx, incoming(2, "b1")))

	select {
	case text := <-h.ch:
		assert.Equal(t, "b1", text)
	case <-time.After(5 * time.Second):
		t.Fatal("second user was blocked by the first")
	}

	close(h.release)
	d.wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{"b1", "a1", "a2", "a3", "a4", "a5"}, h.got)
	assert.Empty(t, d.pending)
}

func TestDispatcher_CancelWhileWaitingForSlot(t *testing.T) {
	h := &gatedHandler{blocked: 1, release: make(chan struct{}), ch: make(chan string, 16)}
	d := newDispatcher(h, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, d.dispatch(ctx, incoming(1, "a1")))

	errCh := make(chan error, 1)
	go func() { errCh <- d.dispatch(ctx, incoming(2, "b1")) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch ignored cancellation")
	}
	close(h.release)
	d.wait()
}
