package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kentavrex/topfit/internal/models"
	"github.com/kentavrex/topfit/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on top of GORM
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a repository bound to db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

func (r *GormRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Transaction runs fn with a repository bound to a single transaction
func (r *GormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx, now: r.now})
	})
}

// SaveUser inserts the user or refreshes their names
func (r *GormRepository) SaveUser(ctx context.Context, user types.User) error {
	m := userModel(user)
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "username", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.TelegramID, err)
	}
	return nil
}

// EnsureUser inserts the user when absent and reports whether it did
func (r *GormRepository) EnsureUser(ctx context.Context, user types.User) (bool, error) {
	m := userModel(user)
	res := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, fmt.Errorf("failed to ensure user %d: %w", user.TelegramID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetUser returns ErrNotFound for unknown ids
func (r *GormRepository) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	var m models.User
	if err := r.conn(ctx).First(&m, "telegram_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	u := userType(m)
	return &u, nil
}

func (r *GormRepository) ListUsers(ctx context.Context) ([]types.User, error) {
	var rows []models.User
	if err := r.conn(ctx).Order("created_at").Order("telegram_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]types.User, 0, len(rows))
	for _, m := range rows {
		users = append(users, userType(m))
	}
	return users, nil
}

// SaveDish stores the nutrition row and the dish row together
func (r *GormRepository) SaveDish(ctx context.Context, dish types.DishData, imageURL string) (*types.Dish, error) {
	m := models.Dish{
		Name:      dish.Name,
		ImageURL:  imageURL,
		Nutrition: nutritionModel(dish.NutritionData),
	}
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m.Nutrition).Error; err != nil {
			return err
		}
		m.NutritionID = m.Nutrition.ID
		return tx.Omit("Nutrition").Create(&m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save dish %q: %w", dish.Name, err)
	}
	d := dishType(m)
	return &d, nil
}

func (r *GormRepository) AddStatistics(ctx context.Context, userID int64, dishID uint, like bool) error {
	m := models.Statistics{
		UserID:    userID,
		DishID:    dishID,
		Like:      like,
		CreatedAt: r.now().UTC(),
	}
	if err := r.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to add statistics for user %d: %w", userID, err)
	}
	return nil
}

// GetUserDishesByPeriod returns dishes logged in [from, to), oldest first
func (r *GormRepository) GetUserDishesByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]types.Dish, error) {
	var rows []models.Statistics
	err := r.conn(ctx).
		Preload("Dish.Nutrition").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.UTC(), to.UTC()).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dishes of user %d: %w", userID, err)
	}
	dishes := make([]types.Dish, 0, len(rows))
	for _, s := range rows {
		dishes = append(dishes, dishType(s.Dish))
	}
	return dishes, nil
}

// GetUserDishHistory returns names of the most recently logged dishes
func (r *GormRepository) GetUserDishHistory(ctx context.Context, userID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var names []string
	err := r.conn(ctx).
		Table("statistics").
		Joins("JOIN dishes ON dishes.id = statistics.dish_id").
		Where("statistics.user_id = ?", userID).
		Order("statistics.created_at DESC").
		Order("statistics.id DESC").
		Limit(limit).
		Pluck("dishes.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dish history of user %d: %w", userID, err)
	}
	return names, nil
}

func (r *GormRepository) SaveRecommendation(ctx context.Context, userID int64, dishID uint, receipt string, servings int) error {
	m := models.RecommendationHistory{
		UserID:        userID,
		DishID:        dishID,
		Receipt:       receipt,
		ServingsCount: servings,
		CreatedAt:     r.now().UTC(),
	}
	if err := r.conn(ctx).Omit("Dish").Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save recommendation for user %d: %w", userID, err)
	}
	return nil
}

// ListRecommendations returns the newest recommendations first
func (r *GormRepository) ListRecommendations(ctx context.Context, userID int64, limit int) ([]types.Recommendation, error) {
	q := r.conn(ctx).
		Preload("Dish.Nutrition").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.RecommendationHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations of user %d: %w", userID, err)
	}
	recs := make([]types.Recommendation, 0, len(rows))
	for _, m := range rows {
		recs = append(recs, types.Recommendation{
			ID:            m.ID,
			Dish:          dishType(m.Dish),
			Receipt:       m.Receipt,
			ServingsCount: m.ServingsCount,
			CreatedAt:     m.CreatedAt,
		})
	}
	return recs, nil
}

func (r *GormRepository) SaveNutrition(ctx context.Context, data types.NutritionData) (*types.Nutrition, error) {
	m := nutritionModel(data)
	if err := r.conn(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to save nutrition: %w", err)
	}
	return &types.Nutrition{ID: m.ID, NutritionData: data}, nil
}

func (r *GormRepository) SetUserNutritionGoal(ctx context.Context, userID int64, nutritionID uint) error {
	res := r.conn(ctx).Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Update("nutrition_goal_id", nutritionID)
	if res.Error != nil {
		return fmt.Errorf("failed to set nutrition goal of user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserNutritionGoal returns nil, nil when the user has no goal yet
func (r *GormRepository) GetUserNutritionGoal(ctx context.Context, userID int64) (*types.Nutrition, error) {
	var user models.User
	err := r.conn(ctx).Preload("NutritionGoal").First(&user, "telegram_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nutrition goal of user %d: %w", userID, err)
	}
	if user.NutritionGoal == nil {
		return nil, nil
	}
	n := nutritionType(*user.NutritionGoal)
	return &n, nil
}

// SaveUserProfile keeps only the latest answers per user
func (r *GormRepository) SaveUserProfile(ctx context.Context, userID int64, input types.NutritionGoalInput) error {
	m := models.UserProfile{
		UserID:   userID,
		Height:   input.Height,
		Weight:   input.Weight,
		Age:      input.Age,
		IsMale:   input.IsMale,
		Activity: int(input.Activity),
		Goal:     int(input.Goal),
	}
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"height", "weight", "age", "is_male", "activity", "goal", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save profile of user %d: %w", userID, err)
	}
	return nil
}

func userModel(u types.User) models.User {
	return models.User{
		TelegramID:      u.TelegramID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Username:        u.Username,
		NutritionGoalID: u.NutritionGoalID,
	}
}

func userType(m models.User) types.User {
	return types.User{
		TelegramID:      m.TelegramID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Username:        m.Username,
		NutritionGoalID: m.NutritionGoalID,
	}
}

func nutritionModel(n types.NutritionData) models.Nutrition {
	return models.Nutrition{
		Protein:       n.Protein,
		Fat:           n.Fat,
		Carbohydrates: n.Carbohydrates,
		Calories:      n.Calories,
	}
}

func nutritionType(m models.Nutrition) types.Nutrition {
	return types.Nutrition{
		ID: m.ID,
		NutritionData: types.NutritionData{
			Protein:       m.Protein,
			Fat:           m.Fat,
			Carbohydrates: m.Carbohydrates,
			Calories:      m.Calories,
		},
	}
}

func dishType(m models.Dish) types.Dish {
	return types.Dish{
		ID:       m.ID,
		ImageURL: m.ImageURL,
		DishData: types.DishData{
			Name:          m.Name,
			NutritionData: nutritionType(m.Nutrition).NutritionData,
		},
	}
}
