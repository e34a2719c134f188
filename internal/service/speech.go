package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kentavrex/topfit/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const saluteSpeechTokenKey = "salutespeech:access_token"

// SpeechService transcribes voice messages with SaluteSpeech
type SpeechService struct {
	apiURL string
	client *http.Client
	tokens *oauthTokenSource
	log    *zap.Logger
}

var _ ISpeechService = (*SpeechService)(nil)

// NewSpeechService creates a SaluteSpeech client. Without an API key voice
// input is disabled and nil is returned.
func NewSpeechService(cfg *config.Config, rdb *redis.Client, log *zap.Logger) *SpeechService {
	if cfg.SaluteSpeechAPIKey == "" {
		return nil
	}
	client := newHTTPClient(cfg.GigaChatHTTPTimeout, cfg.GigaChatInsecureTLS)
	log = log.Named("salutespeech")
	return &SpeechService{
		apiURL: strings.TrimRight(cfg.SaluteSpeechURL, "/"),
		client: client,
		tokens: newOAuthTokenSource(cfg.SaluteSpeechOAuthURL, cfg.SaluteSpeechAPIKey, cfg.SaluteSpeechScope, saluteSpeechTokenKey, client, rdb, log),
		log:    log,
	}
}

// Transcribe converts audio to text. Telegram voice notes are ogg/opus.
func (s *SpeechService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	if mimeType == "" || mimeType == "audio/ogg" {
		mimeType = "audio/ogg;codecs=opus"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/speech:recognize", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.tokens.Invalidate(ctx)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech recognition failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Result []string `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(strings.Join(out.Result, " "))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	s.log.Debug("transcribed voice message", zap.Int("bytes", len(audio)), zap.String("text", text))
	return text, nil
}
