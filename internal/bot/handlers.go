package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/conversation"
	"github.com/kentavrex/topfit/internal/middleware"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
)

// allowed consumes one request from l. An unreachable limiter lets the
// request through.
func (b *Bot) allowed(ctx context.Context, l Limiter, userID int64) bool {
	if l == nil {
		return true
	}
	err := l.Allow(ctx, userID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, middleware.ErrRateLimited):
		b.log.Info("rate limited", zap.Int64("user_id", userID))
		return false
	}
	b.log.Warn("rate limiter unavailable", zap.Error(err))
	return true
}

func (b *Bot) dish(ctx context.Context, in Incoming) error {
	userID := in.User.TelegramID
	if strings.TrimSpace(in.Text) == "" && in.PhotoFileID == "" && in.VoiceFileID == "" {
		return b.msg.SendText(ctx, in.ChatID, textUnsupportedDish, nil)
	}

	if !b.allowed(ctx, b.opts.RecognitionLimit, userID) {
		return b.msg.SendText(ctx, in.ChatID, textRecognitionLimit, nil)
	}

	dish, err := b.recognize(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// the user stays in the dish step and can simply try again
		if errors.Is(err, service.ErrVoiceDisabled) {
			return b.msg.SendText(ctx, in.ChatID, textVoiceDisabled, nil)
		}
		b.log.Warn("dish recognition failed", zap.Int64("user_id", userID), zap.Error(err))
		return b.msg.SendText(ctx, in.ChatID, textRecognitionFailed, nil)
	}

	if err := b.msg.SendMarkdown(ctx, in.ChatID, dishMessage(dish), nil); err != nil {
		return err
	}
	if err := b.svc.Statistics.UpdateStatistics(ctx, userID, dish.ID); err != nil {
		return err
	}
	if err := b.store.Clear(ctx, userID); err != nil {
		return err
	}
	return b.msg.SendText(ctx, in.ChatID, textStatisticsUpdated, UserKeyboard)
}

func (b *Bot) recognize(ctx context.Context, in Incoming) (*types.Dish, error) {
	switch {
	case in.PhotoFileID != "":
		data, mimeType, err := b.msg.DownloadFile(ctx, in.PhotoFileID)
		if err != nil {
			return nil, fmt.Errorf("failed to download photo: %w", err)
		}
		return b.svc.Recognition.RecognizeDishFromImage(ctx, in.User.TelegramID, data, mimeType)
	case in.VoiceFileID != "":
		data, mimeType, err := b.msg.DownloadFile(ctx, in.VoiceFileID)
		if err != nil {
			return nil, fmt.Errorf("failed to download voice: %w", err)
		}
		if in.VoiceMime != "" {
			mimeType = in.VoiceMime
		}
		return b.svc.Recognition.RecognizeDishFromAudio(ctx, data, mimeType)
	}
	return b.svc.Recognition.RecognizeDishFromText(ctx, strings.TrimSpace(in.Text))
}

func (b *Bot) startQuestionnaire(ctx context.Context, in Incoming) error {
	first := conversation.FirstQuestion()
	if err := b.store.Save(ctx, in.User.TelegramID, &conversation.Session{State: first}); err != nil {
		return err
	}
	text, kb := question(first)
	return b.msg.SendText(ctx, in.ChatID, text, kb)
}

// answer records a questionnaire answer and asks the next question. Invalid
// answers repeat the current question.
func (b *Bot) answer(ctx context.Context, in Incoming, session *conversation.Session) error {
	if err := conversation.Validate(session.State, in.Text); err != nil {
		if !conversation.IsValidationError(err) {
			return err
		}
		text, kb := question(session.State)
		return b.msg.SendText(ctx, in.ChatID, err.Error()+"\n"+text, kb)
	}

	session.Set(session.State, strings.TrimSpace(in.Text))
	next := session.State.Next()
	if next == conversation.StateIdle {
		return b.finishQuestionnaire(ctx, in, session)
	}

	session.State = next
	if err := b.store.Save(ctx, in.User.TelegramID, session); err != nil {
		return err
	}
	text, kb := question(next)
	return b.msg.SendText(ctx, in.ChatID, text, kb)
}

func (b *Bot) finishQuestionnaire(ctx context.Context, in Incoming, session *conversation.Session) error {
	userID := in.User.TelegramID
	input, err := session.GoalInput()
	if err != nil {
		return err
	}

	goal, err := b.svc.Users.SetNutritionGoal(ctx, userID, input)
	if err != nil {
		return err
	}
	if err := b.store.Clear(ctx, userID); err != nil {
		return err
	}

	if err := b.msg.SendText(ctx, in.ChatID, textGoalUpdated, UserKeyboard); err != nil {
		return err
	}
	return b.msg.SendMarkdown(ctx, in.ChatID, goalMessage(*goal), nil)
}

func (b *Bot) goal(ctx context.Context, in Incoming) error {
	nutrition, err := b.svc.Users.GetNutritionGoal(ctx, in.User.TelegramID)
	if errors.Is(err, service.ErrNutritionGoalNotSet) {
		return b.msg.SendText(ctx, in.ChatID, textGoalNotSet, GoalSetKeyboard)
	}
	if err != nil {
		return err
	}
	return b.msg.SendMarkdown(ctx, in.ChatID, goalMessage(nutrition.NutritionData), GoalUpdateKeyboard)
}

func (b *Bot) dailyStatistics(ctx context.Context, in Incoming) error {
	stats, err := b.svc.Statistics.GetDailyStatistics(ctx, in.User.TelegramID)
	if err != nil {
		return err
	}
	return b.msg.SendMarkdown(ctx, in.ChatID, dailyStatisticsMessage(stats), nil)
}

func (b *Bot) monthlyStatistics(ctx context.Context, in Incoming) error {
	if b.svc.Reports == nil {
		return b.msg.SendText(ctx, in.ChatID, textReportDisabled, nil)
	}

	report, err := b.svc.Reports.MonthlyReport(ctx, in.User.TelegramID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf); err != nil {
		return err
	}

	name := fmt.Sprintf("topfit-%s.xlsx", time.Now().Format(time.DateOnly))
	return b.msg.SendDocument(ctx, in.ChatID, name, buf.Bytes(), monthlyCaption(report))
}

func (b *Bot) recommendation(ctx context.Context, in Incoming) error {
	userID := in.User.TelegramID
	if !b.allowed(ctx, b.opts.RecommendationLimit, userID) {
		return b.msg.SendText(ctx, in.ChatID, textRecommendLimit, nil)
	}

	if err := b.msg.SendMarkdown(ctx, in.ChatID, textRecommendationIntro, nil); err != nil {
		return err
	}

	rec, err := b.svc.Recommendations.GenerateRecommendation(ctx, userID)
	switch {
	case errors.Is(err, service.ErrNutritionGoalNotSet):
		return b.msg.SendMarkdown(ctx, in.ChatID, textRecommendationNeedsGoal, GoalSetKeyboard)
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.Warn("recommendation failed", zap.Int64("user_id", userID), zap.Error(err))
		return b.msg.SendText(ctx, in.ChatID, textRecommendFailed, nil)
	}

	if err := b.msg.SendMarkdown(ctx, in.ChatID, recommendationMessage(rec), nil); err != nil {
		return err
	}
	return b.msg.SendMarkdown(ctx, in.ChatID, recipeMessage(rec), nil)
}

func (b *Bot) webAccess(ctx context.Context, in Incoming) error {
	if b.svc.Auth == nil {
		return b.msg.SendText(ctx, in.ChatID, textWebDisabled, nil)
	}
	token, err := b.svc.Auth.GenerateToken(in.User.TelegramID, in.User.Username)
	if err != nil {
		b.log.Warn("failed to issue web token", zap.Error(err))
		return b.msg.SendText(ctx, in.ChatID, textWebDisabled, nil)
	}
	return b.msg.SendMarkdown(ctx, in.ChatID, webAccessMessage(token), nil)
}
