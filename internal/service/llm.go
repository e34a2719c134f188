package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"
	"strings"
	"time"

	"github.com/kentavrex/topfit/config"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const gigachatTokenKey = "gigachat:access_token"

var jsonBlockRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// LLMService talks to the GigaChat chat-completion API
type LLMService struct {
	apiURL      string
	model       string
	visionModel string
	retries     int
	retryDelay  time.Duration

	client  *http.Client
	tokens  *oauthTokenSource
	prompts *Prompts
	log     *zap.Logger
}

var _ IAIClient = (*LLMService)(nil)

// NewLLMService creates a GigaChat client. rdb may be nil, in which case the
// access token is cached in memory only.
func NewLLMService(cfg *config.Config, rdb *redis.Client, log *zap.Logger) (*LLMService, error) {
	if cfg.GigaChatAPIKey == "" {
		return nil, fmt.Errorf("GIGACHAT_API_KEY must be set")
	}

	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}

	retries := cfg.GigaChatRetries
	if retries < 1 {
		retries = 1
	}

	client := newHTTPClient(cfg.GigaChatHTTPTimeout, cfg.GigaChatInsecureTLS)
	log = log.Named("gigachat")

	return &LLMService{
		apiURL:      strings.TrimRight(cfg.GigaChatAPIURL, "/"),
		model:       cfg.GigaChatModel,
		visionModel: cfg.GigaChatVisionModel,
		retries:     retries,
		retryDelay:  cfg.GigaChatRetryDelay,
		client:      client,
		tokens:      newOAuthTokenSource(cfg.GigaChatOAuthURL, cfg.GigaChatAPIKey, cfg.GigaChatScope, gigachatTokenKey, client, rdb, log),
		prompts:     prompts,
		log:         log,
	}, nil
}

// newHTTPClient builds the client used for Sber APIs. Their certificates are
// issued by the Russian Trusted CA, which is missing from most trust stores,
// so verification can be switched off.
func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

type chatMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Stream         bool          `json:"stream"`
	UpdateInterval int           `json:"update_interval"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// sendRequest runs one chat completion and returns the first choice
func (s *LLMService) sendRequest(ctx context.Context, system, user string, attachments []string, additional string) (string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	reqBody := chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "system", Content: additional + "\n " + system}},
	}
	if user != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: user})
	}
	if len(attachments) > 0 {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Attachments: attachments})
		reqBody.Model = s.visionModel
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	s.log.Debug("sending chat request",
		zap.String("model", reqBody.Model),
		zap.String("system", system),
		zap.String("user", user),
	)

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
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// uploadFile stores an attachment in GigaChat and returns its id
func (s *LLMService) uploadFile(ctx context.Context, data []byte, mimeType string) (string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="file_name"`)
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.tokens.Invalidate(ctx)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, string(body))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: empty file id", ErrUploadFailed)
	}
	return out.ID, nil
}

// parseJSONResponse decodes the first ```json block of a reply into v
func parseJSONResponse(text string, v any) error {
	match := jsonBlockRe.FindStringSubmatch(text)
	if match == nil {
		return ErrJSONNotFound
	}
	if err := json.Unmarshal([]byte(match[1]), v); err != nil {
		return fmt.Errorf("failed to decode AI json: %w", err)
	}
	return nil
}

// retry runs fn up to s.retries times. From the second attempt on the model
// is reminded to answer with JSON only.
func retry[T any](ctx context.Context, s *LLMService, op string, fn func(ctx context.Context, additional string) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < s.retries; attempt++ {
		additional := ""
		if attempt > 0 {
			additional = s.prompts.JSONReminder
		}

		result, err := fn(ctx, additional)
		if err == nil {
			return result, nil
		}
		lastErr = err
		s.log.Error("AI call failed", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt < s.retries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	return zero, fmt.Errorf("%w: %s: %w", ErrMaxRetries, op, lastErr)
}

func (s *LLMService) parseDish(reply string) (*types.DishData, error) {
	var dish types.DishData
	if err := parseJSONResponse(reply, &dish); err != nil {
		return nil, err
	}
	if err := validateDish(dish); err != nil {
		return nil, err
	}
	return &dish, nil
}

func validateDish(d types.DishData) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("dish name is empty")
	}
	if d.Protein < 0 || d.Fat < 0 || d.Carbohydrates < 0 || d.Calories < 0 {
		return errors.New("dish nutrition is negative")
	}
	return nil
}

// RecognizeMealByText estimates the KBJU of a free-text meal description
func (s *LLMService) RecognizeMealByText(ctx context.Context, text string) (*types.DishData, error) {
	return retry(ctx, s, "recognize_meal_by_text", func(ctx context.Context, additional string) (*types.DishData, error) {
		reply, err := s.sendRequest(ctx, s.prompts.RecognizeByText, text, nil, additional)
		if err != nil {
			return nil, err
		}
		return s.parseDish(reply)
	})
}

// RecognizeMealByImage uploads a photo, asks the vision model what food it
// shows and then estimates the KBJU of that list
func (s *LLMService) RecognizeMealByImage(ctx context.Context, image []byte, mimeType string) (*types.DishData, error) {
	return retry(ctx, s, "recognize_meal_by_image", func(ctx context.Context, additional string) (*types.DishData, error) {
		fileID, err := s.uploadFile(ctx, image, mimeType)
		if err != nil {
			return nil, err
		}

		found, err := s.sendRequest(ctx, s.prompts.FindMeal, s.prompts.FindMeal, []string{fileID}, additional)
		if err != nil {
			return nil, err
		}
		s.log.Info("meal recognized on photo", zap.String("food", found))

		reply, err := s.sendRequest(ctx, s.prompts.RecognizeFoundFood, found, nil, additional)
		if err != nil {
			return nil, err
		}
		return s.parseDish(reply)
	})
}

// RecognizeMealByTextFromAudio handles transcripts, which are noisier than
// typed text, by extracting the food first
func (s *LLMService) RecognizeMealByTextFromAudio(ctx context.Context, text string) (*types.DishData, error) {
	return retry(ctx, s, "recognize_meal_by_text_from_audio", func(ctx context.Context, additional string) (*types.DishData, error) {
		found, err := s.sendRequest(ctx, s.prompts.FindMeal, text, nil, additional)
		if err != nil {
			return nil, err
		}
		s.log.Info("meal recognized in transcript", zap.String("food", found))

		reply, err := s.sendRequest(ctx, s.prompts.RecognizeFoundFood, found, nil, additional)
		if err != nil {
			return nil, err
		}
		return s.parseDish(reply)
	})
}

// GetDishRecommendation asks for a dish fitting the budget described in message
func (s *LLMService) GetDishRecommendation(ctx context.Context, message string) (*types.DishRecommendation, error) {
	return retry(ctx, s, "get_dish_recommendation", func(ctx context.Context, additional string) (*types.DishRecommendation, error) {
		reply, err := s.sendRequest(ctx, s.prompts.Recommendation, message, nil, additional)
		if err != nil {
			return nil, err
		}
		var rec types.DishRecommendation
		if err := parseJSONResponse(reply, &rec); err != nil {
			return nil, err
		}
		if err := validateDish(rec.DishData); err != nil {
			return nil, err
		}
		return &rec, nil
	})
}
