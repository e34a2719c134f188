package service

import (
	"context"
	"fmt"

	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/types"
	"go.uber.org/zap"
)

// UsersService manages bot users and their daily nutrition goals
type UsersService struct {
	repo repository.Repository
	log  *zap.Logger
}

var _ IUsersService = (*UsersService)(nil)

func NewUsersService(repo repository.Repository, log *zap.Logger) *UsersService {
	return &UsersService{repo: repo, log: log.Named("users")}
}

func (s *UsersService) SaveUser(ctx context.Context, user types.User) error {
	return s.repo.SaveUser(ctx, user)
}

// EnsureUser registers the user if needed and reports whether they are new
func (s *UsersService) EnsureUser(ctx context.Context, user types.User) (bool, error) {
	created, err := s.repo.EnsureUser(ctx, user)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("registered new user", zap.Int64("user_id", user.TelegramID), zap.String("username", user.Username))
	}
	return created, nil
}

func (s *UsersService) GetUsers(ctx context.Context) ([]types.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetNutritionGoal calculates the goal, stores it with the questionnaire
// answers and links it to the user in one transaction
func (s *UsersService) SetNutritionGoal(ctx context.Context, userID int64, input types.NutritionGoalInput) (*types.NutritionData, error) {
	goal, err := CalculateNutritionGoal(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		saved, err := tx.SaveNutrition(ctx, goal)
		if err != nil {
			return err
		}
		if err := tx.SetUserNutritionGoal(ctx, userID, saved.ID); err != nil {
			return err
		}
		return tx.SaveUserProfile(ctx, userID, input)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set nutrition goal: %w", err)
	}

	s.log.Info("nutrition goal updated", zap.Int64("user_id", userID), zap.Float64("calories", goal.Calories))
	return &goal, nil
}

// GetNutritionGoal returns ErrNutritionGoalNotSet for users without a goal
func (s *UsersService) GetNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error) {
	goal, err := s.repo.GetUserNutritionGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrNutritionGoalNotSet
	}
	return goal, nil
}

// CalculateNutritionGoal applies the Mifflin-St Jeor equation, the activity
// and goal multipliers and a 30/30/40 protein/fat/carbohydrate split
func CalculateNutritionGoal(input types.NutritionGoalInput) (types.NutritionData, error) {
	if !input.Activity.Valid() {
		return types.NutritionData{}, fmt.Errorf("invalid activity type %d", input.Activity)
	}
	if !input.Goal.Valid() {
		return types.NutritionData{}, fmt.Errorf("invalid goal type %d", input.Goal)
	}

	bmr := 10*input.Weight + 6.25*input.Height - 5*float64(input.Age)
	if input.IsMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	calories := bmr * input.Activity.Factor() * input.Goal.Factor()

	return types.NutritionData{
		Protein:       calories * 0.3 / 4,
		Fat:           calories * 0.3 / 9,
		Carbohydrates: calories * 0.4 / 4,
		Calories:      calories,
	}.Round(), nil
}
