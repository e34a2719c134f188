package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kentavrex/topfit/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGigaChat serves the OAuth, chat and files endpoints
type fakeGigaChat struct {
	t *testing.T

	mu          sync.Mutex
	replies     []string
	chats       []chatRequest
	auths       []string
	oauthCalls  int
	uploads     int
	rejectFirst bool
}

func (f *fakeGigaChat) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.oauthCalls++
		assert.Equal(f.t, "Basic test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(f.t, r.Header.Get("RqUID"))
		require.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": fmt.Sprintf("token-%d", f.oauthCalls),
			"expires_at":   time.Now().Add(30 * time.Minute).UnixMilli(),
		})
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.rejectFirst {
			f.rejectFirst = false
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req chatRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.chats = append(f.chats, req)
		f.auths = append(f.auths, r.Header.Get("Authorization"))

		reply := "ничего"
		if len(f.replies) > 0 {
			reply, f.replies = f.replies[0], f.replies[1:]
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": reply}}},
		})
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.uploads++
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
		assert.Equal(f.t, "general", r.FormValue("purpose"))
		file, header, err := r.FormFile("file")
		require.NoError(f.t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(f.t, "jpeg-bytes", string(data))
		assert.Equal(f.t, "image/jpeg", header.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-1"})
	})
	return mux
}

func newTestLLM(t *testing.T, replies ...string) (*LLMService, *fakeGigaChat) {
	fake := &fakeGigaChat{t: t, replies: replies}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		GigaChatAPIKey:      "test-key",
		GigaChatScope:       "GIGACHAT_API_PERS",
		GigaChatAPIURL:      srv.URL,
		GigaChatOAuthURL:    srv.URL + "/oauth",
		GigaChatModel:       "GigaChat",
		GigaChatVisionModel: "GigaChat-Max",
		GigaChatRetries:     3,
		GigaChatRetryDelay:  time.Millisecond,
		GigaChatHTTPTimeout: 5 * time.Second,
	}
	llm, err := NewLLMService(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return llm, fake
}

func jsonReply(v string) string {
	return "Вот результат:\n```json\n" + v + "\n```"
}

func TestNewLLMService(t *testing.T) {
	t.Run("should fail without API key", func(t *testing.T) {
		llm, err := NewLLMService(&config.Config{}, nil, zap.NewNop())
		assert.Error(t, err)
		assert.Nil(t, llm)
	})
}

func TestParseJSONResponse(t *testing.T) {
	var out map[string]interface{}

	t.Run("extracts fenced block", func(t *testing.T) {
		err := parseJSONResponse("text\n```json\n{\"a\": 1}\n```\nmore", &out)
		require.NoError(t, err)
		assert.Equal(t, 1.0, out["a"])
	})

	t.Run("no block", func(t *testing.T) {
		err := parseJSONResponse(`{"a": 1}`, &out)
		assert.ErrorIs(t, err, ErrJSONNotFound)
	})

	t.Run("bad json", func(t *testing.T) {
		err := parseJSONResponse("```json\n{a: 1}\n```", &out)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrJSONNotFound))
	})
}

func TestRecognizeMealByText(t *testing.T) {
	llm, fake := newTestLLM(t,
		jsonReply(`{"name": "Омлет", "protein": 12.5, "fat": 10, "carbohydrates": 2, "calories": 150}`),
		jsonReply(`{"name": "Чай", "protein": 0, "fat": 0, "carbohydrates": 0, "calories": 2}`),
	)
	ctx := context.Background()

	dish, err := llm.RecognizeMealByText(ctx, "омлет из двух яиц")
	require.NoError(t, err)
	assert.Equal(t, "Омлет", dish.Name)
	assert.Equal(t, 12.5, dish.Protein)
	assert.Equal(t, 150.0, dish.Calories)

	_, err = llm.RecognizeMealByText(ctx, "чай")
	require.NoError(t, err)

	require.Len(t, fake.chats, 2)
	first := fake.chats[0]
	assert.Equal(t, "GigaChat", first.Model)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "system", first.Messages[0].Role)
	assert.Equal(t, "\n "+llm.prompts.RecognizeByText, first.Messages[0].Content)
	assert.Equal(t, "омлет из двух яиц", first.Messages[1].Content)
	assert.Equal(t, "Bearer token-1", fake.auths[0])

	// token is reused between calls
	assert.Equal(t, 1, fake.oauthCalls)
}

func TestRetryAddsJSONReminder(t *testing.T) {
	llm, fake := newTestLLM(t,
		"Омлет, примерно 150 ккал",
		jsonReply(`{"name": "Омлет", "protein": 12, "fat": 10, "carbohydrates": 2, "calories": 150}`),
	)

	dish, err := llm.RecognizeMealByText(context.Background(), "омлет")
	require.NoError(t, err)
	assert.Equal(t, "Омлет", dish.Name)

	require.Len(t, fake.chats, 2)
	assert.False(t, strings.HasPrefix(fake.chats[0].Messages[0].Content, llm.prompts.JSONReminder))
	assert.True(t, strings.HasPrefix(fake.chats[1].Messages[0].Content, llm.prompts.JSONReminder+"\n "))
}

func TestRetryGivesUp(t *testing.T) {
	llm, fake := newTestLLM(t, "нет", "нет", "нет", "нет")

	_, err := llm.RecognizeMealByText(context.Background(), "омлет")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, ErrJSONNotFound)
	assert.Len(t, fake.chats, 3)
}

func TestRetryStopsOnCancel(t *testing.T) {
	llm, _ := newTestLLM(t, "нет", "нет", "нет")
	llm.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := llm.RecognizeMealByText(ctx, "омлет")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnauthorizedRefreshesToken(t *testing.T) {
	llm, fake := newTestLLM(t,
		jsonReply(`{"name": "Суп", "protein": 5, "fat": 3, "carbohydrates": 10, "calories": 90}`),
	)
	fake.rejectFirst = true

	dish, err := llm.RecognizeMealByText(context.Background(), "суп")
	require.NoError(t, err)
	assert.Equal(t, "Суп", dish.Name)
	assert.Equal(t, 2, fake.oauthCalls)
	assert.Equal(t, "Bearer token-2", fake.auths[0])
}

func TestRecognizeMealByImage(t *testing.T) {
	llm, fake := newTestLLM(t,
		"Гречка, котлета",
		jsonReply(`{"name": "Гречка с котлетой", "protein": 25, "fat": 15, "carbohydrates": 40, "calories": 400}`),
	)

	dish, err := llm.RecognizeMealByImage(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Гречка с котлетой", dish.Name)
	assert.Equal(t, 1, fake.uploads)

	require.Len(t, fake.chats, 2)
	vision := fake.chats[0]
	assert.Equal(t, "GigaChat-Max", vision.Model)
	require.Len(t, vision.Messages, 3)
	assert.Equal(t, llm.prompts.FindMeal, vision.Messages[1].Content)
	assert.Equal(t, []string{"file-1"}, vision.Messages[2].Attachments)

	kbju := fake.chats[1]
	assert.Equal(t, "GigaChat", kbju.Model)
	assert.Equal(t, "Гречка, котлета", kbju.Messages[1].Content)
}

func TestRecognizeMealByTextFromAudio(t *testing.T) {
	llm, fake := newTestLLM(t,
		"Борщ",
		jsonReply(`{"name": "Борщ", "protein": 6, "fat": 5, "carbohydrates": 12, "calories": 120}`),
	)

	dish, err := llm.RecognizeMealByTextFromAudio(context.Background(), "ну я съел тарелку борща")
	require.NoError(t, err)
	assert.Equal(t, "Борщ", dish.Name)

	require.Len(t, fake.chats, 2)
	assert.Equal(t, "\n "+llm.prompts.FindMeal, fake.chats[0].Messages[0].Content)
	assert.Equal(t, "ну я съел тарелку борща", fake.chats[0].Messages[1].Content)
	assert.Equal(t, "Борщ", fake.chats[1].Messages[1].Content)
}

func TestGetDishRecommendation(t *testing.T) {
	llm, _ := newTestLLM(t, jsonReply(`{
		"protein": 60, "fat": 30, "carbohydrates": 120, "calories": 1000,
		"name": "Паста с курицей", "receipt": "Отварить пасту", "servings_count": 4
	}`))

	rec, err := llm.GetDishRecommendation(context.Background(), "Примерный (не точный) желаемый кбжу")
	require.NoError(t, err)
	assert.Equal(t, "Паста с курицей", rec.Name)
	assert.Equal(t, 4, rec.ServingsCount)
	assert.Equal(t, 250.0, rec.PerServing().Calories)
	assert.Equal(t, "Отварить пасту", rec.Receipt)
}

func TestRejectsInvalidDish(t *testing.T) {
	llm, fake := newTestLLM(t,
		jsonReply(`{"name": "", "protein": 1, "fat": 1, "carbohydrates": 1, "calories": 10}`),
		jsonReply(`{"name": "Яблоко", "protein": -1, "fat": 0, "carbohydrates": 10, "calories": 50}`),
		jsonReply(`{"name": "Яблоко", "protein": 0.4, "fat": 0.2, "carbohydrates": 10, "calories": 50}`),
	)

	dish, err := llm.RecognizeMealByText(context.Background(), "яблоко")
	require.NoError(t, err)
	assert.Equal(t, 0.4, dish.Protein)
	assert.Len(t, fake.chats, 3)
}

func TestTokenCachedInRedis(t *testing.T) {
	// Skip this test if no Redis is available
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("Skipping Redis-dependent test - REDIS_HOST not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_HOST") + ":6379"})
	defer rdb.Close()
	ctx := context.Background()
	require.NoError(t, rdb.Del(ctx, "test:token").Err())

	fake := &fakeGigaChat{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	source := newOAuthTokenSource(srv.URL+"/oauth", "test-key", "GIGACHAT_API_PERS", "test:token", srv.Client(), rdb, zap.NewNop())
	token, err := source.Token(ctx)
	require.NoError(t, err)

	other := newOAuthTokenSource(srv.URL+"/oauth", "test-key", "GIGACHAT_API_PERS", "test:token", srv.Client(), rdb, zap.NewNop())
	shared, err := other.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, shared)
	assert.Equal(t, 1, fake.oauthCalls)

	ttl, err := rdb.TTL(ctx, "test:token").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	other.Invalidate(ctx)
	assert.ErrorIs(t, rdb.Get(ctx, "test:token").Err(), redis.Nil)
}
