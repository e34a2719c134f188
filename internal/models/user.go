package models

import (
	"time"
)

// User is a bot user. The primary key is the Telegram user id.
type User struct {
	TelegramID      int64      `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	FirstName       string     `gorm:"size:255" json:"first_name"`
	LastName        string     `gorm:"size:255" json:"last_name"`
	Username        string     `gorm:"size:255" json:"username"`
	NutritionGoalID *uint      `json:"nutrition_goal_id"`
	NutritionGoal   *Nutrition `gorm:"foreignKey:NutritionGoalID" json:"nutrition_goal,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UserProfile keeps the latest questionnaire answers of a user
type UserProfile struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Height    float64   `gorm:"not null" json:"height"`
	Weight    float64   `gorm:"not null" json:"weight"`
	Age       int       `gorm:"not null" json:"age"`
	IsMale    bool      `gorm:"not null" json:"is_male"`
	Activity  int       `gorm:"not null" json:"activity"`
	Goal      int       `gorm:"not null" json:"goal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
