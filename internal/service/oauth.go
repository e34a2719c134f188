package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tokenSafetyMargin is subtracted from the token lifetime so a token never
// expires in flight
const tokenSafetyMargin = time.Minute

// oauthTokenSource obtains Sber OAuth access tokens. Tokens are shared
// through Redis when it is configured and kept in memory otherwise.
type oauthTokenSource struct {
	url      string
	key      string
	scope    string
	cacheKey string
	client   *http.Client
	redis    *redis.Client
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is unix time in milliseconds
	ExpiresAt int64 `json:"expires_at"`
}

func newOAuthTokenSource(oauthURL, key, scope, cacheKey string, client *http.Client, rdb *redis.Client, log *zap.Logger) *oauthTokenSource {
	return &oauthTokenSource{
		url:      oauthURL,
		key:      key,
		scope:    scope,
		cacheKey: cacheKey,
		client:   client,
		redis:    rdb,
		log:      log,
		now:      time.Now,
	}
}

// Token returns a valid access token, fetching a new one when needed
func (s *oauthTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	if s.redis != nil {
		token, err := s.redis.Get(ctx, s.cacheKey).Result()
		switch {
		case err == nil && token != "":
			ttl, ttlErr := s.redis.TTL(ctx, s.cacheKey).Result()
			if ttlErr == nil && ttl > 0 {
				s.token = token
				s.expiresAt = s.now().Add(ttl)
				return token, nil
			}
		case err != nil && !errors.Is(err, redis.Nil):
			s.log.Warn("failed to read cached token", zap.String("key", s.cacheKey), zap.Error(err))
		}
	}

	resp, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	expiresAt := time.UnixMilli(resp.ExpiresAt).Add(-tokenSafetyMargin)
	if resp.ExpiresAt == 0 || !expiresAt.After(s.now()) {
		// 30 minutes is the documented lifetime
		expiresAt = s.now().Add(30*time.Minute - tokenSafetyMargin)
	}
	s.token = resp.AccessToken
	s.expiresAt = expiresAt

	if s.redis != nil {
		if err := s.redis.Set(ctx, s.cacheKey, resp.AccessToken, expiresAt.Sub(s.now())).Err(); err != nil {
			s.log.Warn("failed to cache token", zap.String("key", s.cacheKey), zap.Error(err))
		}
	}

	return s.token, nil
}

// Invalidate drops the cached token after the API rejected it
func (s *oauthTokenSource) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.expiresAt = time.Time{}
	if s.redis != nil {
		if err := s.redis.Del(ctx, s.cacheKey).Err(); err != nil {
			s.log.Warn("failed to drop cached token", zap.String("key", s.cacheKey), zap.Error(err))
		}
	}
}

func (s *oauthTokenSource) fetch(ctx context.Context) (*oauthResponse, error) {
	form := url.Values{"scope": {s.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+s.key)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send oauth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out oauthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode oauth response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, errors.New("oauth response has no access_token")
	}

	s.log.Debug("obtained access token", zap.String("scope", s.scope))
	return &out, nil
}
