package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/types"
	"go.uber.org/zap"
)

// recommendationFloor keeps the requested budget sensible once the user has
// already eaten their daily goal
var recommendationFloor = types.NutritionData{
	Protein:       2,
	Fat:           0,
	Carbohydrates: 10,
	Calories:      300,
}

// RecommendationService suggests dishes within the remaining daily budget
type RecommendationService struct {
	repo  repository.Repository
	ai    IAIClient
	stats IStatisticsService
	log   *zap.Logger
}

var _ IRecommendationService = (*RecommendationService)(nil)

func NewRecommendationService(repo repository.Repository, ai IAIClient, stats IStatisticsService, log *zap.Logger) *RecommendationService {
	return &RecommendationService{repo: repo, ai: ai, stats: stats, log: log.Named("recommendations")}
}

// RemainingBudget is what is left of goal after eaten, never below the floor
func RemainingBudget(goal, eaten types.NutritionData) types.NutritionData {
	return goal.Sub(eaten).Max(recommendationFloor).Round()
}

// RecommendationPrompt renders the user message sent to the generator
func RecommendationPrompt(budget types.NutritionData, history []string) string {
	target := fmt.Sprintf("белки %.1f г, жиры %.1f г, углеводы %.1f г, калории %.1f ккал",
		budget.Protein, budget.Fat, budget.Carbohydrates, budget.Calories)
	if len(history) == 0 {
		return "Примерный (не точный) желаемый кбжу: " + target +
			". Истории прошлых блюд нет, просто порекомендуй что-нибудь вкусное."
	}
	return "Примерный (не точный) желаемый кбжу: " + target +
		". История прошлых блюд: " + strings.Join(history, ", ")
}

func (s *RecommendationService) prompt(ctx context.Context, userID int64) (string, error) {
	goal, err := s.repo.GetUserNutritionGoal(ctx, userID)
	if err != nil {
		return "", err
	}
	if goal == nil {
		return "", ErrNutritionGoalNotSet
	}

	history, err := s.repo.GetUserDishHistory(ctx, userID, repository.DefaultHistoryLimit)
	if err != nil {
		return "", err
	}

	today, err := s.stats.GetDailyStatistics(ctx, userID)
	if err != nil {
		return "", err
	}

	return RecommendationPrompt(RemainingBudget(goal.NutritionData, today.NutritionData), history), nil
}

// GenerateRecommendation asks the generator for a dish and stores it in the
// user's recommendation history. The returned values cover all servings.
func (s *RecommendationService) GenerateRecommendation(ctx context.Context, userID int64) (*types.DishRecommendation, error) {
	prompt, err := s.prompt(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec, err := s.ai.GetDishRecommendation(ctx, prompt)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		dish, err := tx.SaveDish(ctx, rec.DishData, "")
		if err != nil {
			return err
		}
		return tx.SaveRecommendation(ctx, userID, dish.ID, rec.Receipt, rec.Servings())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recommendation: %w", err)
	}

	s.log.Info("dish recommended", zap.Int64("user_id", userID), zap.String("dish", rec.Name), zap.Int("servings", rec.Servings()))
	return rec, nil
}

func (s *RecommendationService) ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error) {
	return s.repo.ListRecommendations(ctx, userID, limit)
}
